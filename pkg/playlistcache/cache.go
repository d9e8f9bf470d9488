package playlistcache

func (m *ManagerCtx) getFromMemo(key string) (*Entry, bool) {
	if m.memo == nil {
		return nil, false
	}

	value, ok := m.memo.Get(key)
	if !ok {
		return nil, false
	}

	m.logger.Debug().Str("key", key).Msg("memo hit")
	return value.(*Entry), true
}

func (m *ManagerCtx) saveToMemo(entry *Entry) {
	if m.memo == nil {
		return
	}

	m.memo.SetDefault(entry.Key, entry)
}

func (m *ManagerCtx) removeFromMemo(key string) {
	if m.memo == nil {
		return
	}

	m.memo.Delete(key)
}

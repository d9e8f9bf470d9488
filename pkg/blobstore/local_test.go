package blobstore

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func newMemLocal() *LocalStore {
	return NewLocal(&LocalConfig{
		Fs: afero.NewMemMapFs(),
	})
}

func TestLocalPutList(t *testing.T) {
	ctx := context.Background()
	s := newMemLocal()

	for _, name := range []string{"playlists/b.m3u8", "playlists/a.m3u8", "other/c.m3u8"} {
		if _, err := s.Put(ctx, name, []byte("#EXTM3U\n"), "application/vnd.apple.mpegurl"); err != nil {
			t.Fatalf("Put(%s) error = %v", name, err)
		}
	}

	res, err := s.List(ctx, ListOptions{Prefix: "playlists/"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(res.Blobs) != 2 {
		t.Fatalf("List() returned %d blobs, want 2", len(res.Blobs))
	}
	if res.Blobs[0].Pathname != "playlists/a.m3u8" || res.Blobs[1].Pathname != "playlists/b.m3u8" {
		t.Errorf("List() = %v, want sorted playlists entries", res.Blobs)
	}
	if res.Blobs[0].URL != "/playlists/a.m3u8" {
		t.Errorf("URL = %q, want %q", res.Blobs[0].URL, "/playlists/a.m3u8")
	}
	if res.Blobs[0].Size != 8 {
		t.Errorf("Size = %d, want 8", res.Blobs[0].Size)
	}
}

func TestLocalListPaging(t *testing.T) {
	ctx := context.Background()
	s := newMemLocal()

	for _, name := range []string{"p/1", "p/2", "p/3"} {
		if _, err := s.Put(ctx, name, []byte("x"), "text/plain"); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	cursor := ""
	for pages := 0; pages < 5; pages++ {
		res, err := s.List(ctx, ListOptions{Prefix: "p/", Limit: 2, Cursor: cursor})
		if err != nil {
			t.Fatal(err)
		}
		for _, b := range res.Blobs {
			got = append(got, b.Pathname)
		}
		if !res.HasMore {
			break
		}
		cursor = res.Cursor
	}

	if len(got) != 3 || got[0] != "p/1" || got[2] != "p/3" {
		t.Errorf("paged List() = %v, want [p/1 p/2 p/3]", got)
	}
}

func TestLocalListMissingDir(t *testing.T) {
	res, err := newMemLocal().List(context.Background(), ListOptions{Prefix: "playlists/x.m3u8", Limit: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(res.Blobs) != 0 {
		t.Errorf("List() = %v, want empty", res.Blobs)
	}
}

func TestLocalOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newMemLocal()

	if _, err := s.Put(ctx, "playlists/a.m3u8", []byte("first"), ""); err != nil {
		t.Fatal(err)
	}
	blob, err := s.Put(ctx, "playlists/a.m3u8", []byte("second!"), "")
	if err != nil {
		t.Fatal(err)
	}

	data, err := afero.ReadFile(s.Fs(), "/playlists/a.m3u8")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second!" {
		t.Errorf("content = %q, want last write", data)
	}

	// no temporary files are left behind
	infos, _ := afero.ReadDir(s.Fs(), "/playlists")
	if len(infos) != 1 {
		t.Errorf("directory has %d files, want 1", len(infos))
	}

	if err := s.Delete(ctx, "http://localhost:3000"+blob.URL); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := afero.Exists(s.Fs(), "/playlists/a.m3u8"); ok {
		t.Error("file still exists after Delete()")
	}

	// deleting twice is a no-op
	if err := s.Delete(ctx, blob.URL); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestLocalDeleteCannotEscapeRoot(t *testing.T) {
	ctx := context.Background()
	base := afero.NewMemMapFs()
	_ = afero.WriteFile(base, "/outside", []byte("x"), 0644)

	s := NewLocal(&LocalConfig{Fs: afero.NewBasePathFs(base, "/data")})
	if err := s.Delete(ctx, "/../outside"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if ok, _ := afero.Exists(base, "/outside"); !ok {
		t.Error("file outside of root was deleted")
	}
}

func TestLocalUploadedAtIsModTime(t *testing.T) {
	ctx := context.Background()
	s := newMemLocal()

	if _, err := s.Put(ctx, "playlists/old.m3u8", []byte("x"), ""); err != nil {
		t.Fatal(err)
	}

	old := time.Now().Add(-48 * time.Hour)
	if err := s.Fs().Chtimes("/playlists/old.m3u8", old, old); err != nil {
		t.Fatal(err)
	}

	res, err := s.List(ctx, ListOptions{Prefix: "playlists/"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Blobs) != 1 || !res.Blobs[0].UploadedAt.Equal(old) {
		t.Errorf("UploadedAt = %v, want %v", res.Blobs, old)
	}
}

package hlsproxy

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var uriAttrRegex = regexp.MustCompile(`URI="([^"]*)"`)

// IsPlaylist reports whether content looks like HLS manifest.
func IsPlaylist(content string) bool {
	return strings.Contains(content, "#EXTM3U") || strings.Contains(content, "#EXT-X-")
}

// PlaylistUrlWalk calls replace for every URI in manifest, that is every
// non-comment line and every URI="..." attribute of tags. Lines are not
// limited in length, manifest is either rewritten whole or error is returned.
func PlaylistUrlWalk(r io.Reader, replace func(string) string) (string, error) {
	var sb strings.Builder

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}

		if line == "" && err == io.EOF {
			break
		}

		line = strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "#"):
			line = uriAttrRegex.ReplaceAllStringFunc(line, func(attr string) string {
				uri := uriAttrRegex.FindStringSubmatch(attr)[1]
				return `URI="` + replace(uri) + `"`
			})
		default:
			indent := line[:strings.Index(line, trimmed)]
			line = indent + replace(trimmed)
		}

		sb.WriteString(line)
		sb.WriteByte('\n')

		if err == io.EOF {
			break
		}
	}

	return sb.String(), nil
}

package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback data format: sp|<session_id>|<cursor>|<option_index>
//
// The cursor is baked into every button at render time so a tap on an
// outdated message identifies exactly which position it was answering;
// staleness then needs no extra round trip. Telegram caps callback data
// at 64 bytes; a UUID plus two small ints fits comfortably.
const callbackPrefix = "sp|"

func formatCallback(sessionID string, cursor, option int) string {
	return fmt.Sprintf("%s%s|%d|%d", callbackPrefix, sessionID, cursor, option)
}

func parseCallback(data string) (sessionID string, cursor, option int, err error) {
	if !strings.HasPrefix(data, callbackPrefix) {
		return "", 0, 0, fmt.Errorf("not a sprint callback: %q", data)
	}

	parts := strings.Split(strings.TrimPrefix(data, callbackPrefix), "|")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("want 3 fields, got %d: %q", len(parts), data)
	}

	sessionID = parts[0]
	if sessionID == "" {
		return "", 0, 0, fmt.Errorf("empty session id: %q", data)
	}

	cursor, err = strconv.Atoi(parts[1])
	if err != nil || cursor < 0 {
		return "", 0, 0, fmt.Errorf("bad cursor %q", parts[1])
	}

	option, err = strconv.Atoi(parts[2])
	if err != nil || option < 0 {
		return "", 0, 0, fmt.Errorf("bad option index %q", parts[2])
	}

	return sessionID, cursor, option, nil
}

package vt

import (
	"strconv"
	"strings"
)

// Point is a simple (x, y) pair used by the OSC image/box option
// grammar for location and offset.
type Point struct{ X, Y int }

// ImageCommand is the parsed form of an "image:" OSC payload.
type ImageCommand struct {
	File     string
	Location *Point
	Offset   *Point
	Scale    int // 0 = auto
}

// BoxCommand is the parsed form of a "box:" OSC payload.
type BoxCommand struct {
	Color    uint32
	Size     Point
	Location *Point
	Offset   *Point
}

// ParseOSC splits a raw OSC payload into its command name ("image" or
// "box") and its semicolon-separated key=value options. Malformed
// payloads return ok=false so the caller silently ignores them, per
// §7's OSC/parse-error taxonomy.
func ParseOSC(payload []byte) (cmd string, opts map[string]string, ok bool) {
	s := string(payload)
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return "", nil, false
	}
	cmd = s[:idx]
	if cmd != "image" && cmd != "box" {
		return "", nil, false
	}
	opts = make(map[string]string)
	for _, field := range strings.Split(s[idx+1:], ";") {
		if field == "" {
			continue
		}
		kv := strings.SplitN(field, "=", 2)
		if len(kv) == 1 {
			// A bare filename with no "file=" key, frecon's common shorthand.
			opts["file"] = kv[0]
			continue
		}
		opts[kv[0]] = kv[1]
	}
	return cmd, opts, true
}

func parsePoint(v string) (Point, bool) {
	parts := strings.SplitN(v, ",", 2)
	if len(parts) != 2 {
		return Point{}, false
	}
	x, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return Point{}, false
	}
	return Point{X: x, Y: y}, true
}

// ParseImageCommand interprets the options of an "image:" OSC payload.
// location and offset are mutually meaningful but not mutually
// exclusive in the grammar; the caller (the terminal's OSC handler)
// implements the "location wins, log a warning" rule from §4.D since
// that requires access to the logger.
func ParseImageCommand(opts map[string]string) ImageCommand {
	cmd := ImageCommand{File: opts["file"]}
	if v, ok := opts["location"]; ok {
		if p, ok := parsePoint(v); ok {
			cmd.Location = &p
		}
	}
	if v, ok := opts["offset"]; ok {
		if p, ok := parsePoint(v); ok {
			cmd.Offset = &p
		}
	}
	if v, ok := opts["scale"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cmd.Scale = n
		}
	}
	return cmd
}

// ParseBoxCommand interprets the options of a "box:" OSC payload.
func ParseBoxCommand(opts map[string]string) BoxCommand {
	cmd := BoxCommand{}
	if v, ok := opts["color"]; ok {
		v = strings.TrimPrefix(v, "0x")
		v = strings.TrimPrefix(v, "#")
		if n, err := strconv.ParseUint(v, 16, 32); err == nil {
			cmd.Color = uint32(n)
		}
	}
	if v, ok := opts["size"]; ok {
		if p, ok := parsePoint(v); ok {
			cmd.Size = p
		}
	}
	if v, ok := opts["location"]; ok {
		if p, ok := parsePoint(v); ok {
			cmd.Location = &p
		}
	}
	if v, ok := opts["offset"]; ok {
		if p, ok := parsePoint(v); ok {
			cmd.Offset = &p
		}
	}
	return cmd
}

package share

// Fields carries structured key/value context attached to a log Entry.
type Fields map[string]any

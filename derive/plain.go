package derive

import "github.com/goliatone/go-hotstate/reactive"

// maxPlainDepth bounds plain's descent so cyclic state cannot recurse forever.
const maxPlainDepth = 32

// plainEnv converts live state into values the engines understand: cells are
// read, *[]any arrays are dereferenced, and objects and arrays are copied.
func plainEnv(env map[string]any) map[string]any {
	out := make(map[string]any, len(env))
	for key, value := range env {
		out[key] = plain(value, 0)
	}
	return out
}

func plain(value any, depth int) any {
	if depth > maxPlainDepth {
		return nil
	}
	switch v := value.(type) {
	case reactive.Readable:
		return plain(v.Get(), depth+1)
	case *[]any:
		if v == nil {
			return nil
		}
		return plain(*v, depth)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item, depth+1)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = plain(item, depth+1)
		}
		return out
	default:
		return value
	}
}

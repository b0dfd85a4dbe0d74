package models

import "fmt"

const previewLimit = 100

// Preview derives the truncated human-readable summary stored on a node
// after execution.
func Preview(result any) string {
	switch v := result.(type) {
	case string:
		if len(v) > previewLimit {
			return v[:previewLimit] + "..."
		}

		return v
	case map[string]any:
		if _, ok := v["audioUrl"]; ok {
			voice, _ := v["voice"].(string)
			if voice == "" {
				voice = "default voice"
			}

			return fmt.Sprintf("Audio generated (%s)", voice)
		}

		if t, ok := v["type"].(string); ok && (t == "image" || t == "video") {
			return t + " generated successfully"
		}

		return "Generated content (object)"
	default:
		return "Generated content"
	}
}

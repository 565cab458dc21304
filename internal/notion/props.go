// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

// Notion property value builders. rich_text and title blocks are limited to
// 2000 characters per element.

const maxTextChunk = 2000

func titleProp(text string) map[string]any {
	if len(text) > maxTextChunk {
		text = text[:maxTextChunk]
	}
	return map[string]any{
		"title": []map[string]any{
			{"text": map[string]any{"content": text}},
		},
	}
}

// richTextProp splits long text into 2000-char elements so nothing is lost.
func richTextProp(text string) map[string]any {
	var blocks []map[string]any
	for start := 0; start == 0 || start < len(text); start += maxTextChunk {
		end := start + maxTextChunk
		if end > len(text) {
			end = len(text)
		}
		blocks = append(blocks, map[string]any{
			"text": map[string]any{"content": text[start:end]},
		})
	}
	return map[string]any{"rich_text": blocks}
}

func selectProp(name string) map[string]any {
	return map[string]any{"select": map[string]any{"name": name}}
}

func dateProp(isoDate string) map[string]any {
	return map[string]any{"date": map[string]any{"start": isoDate}}
}

func urlProp(u string) map[string]any {
	return map[string]any{"url": u}
}

// relationProp builds a relation value referencing the given page IDs. The
// target pages must already exist; the writer guarantees the ordering.
func relationProp(ids ...string) map[string]any {
	refs := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, map[string]any{"id": id})
	}
	return map[string]any{"relation": refs}
}

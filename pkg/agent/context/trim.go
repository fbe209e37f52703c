// Package context keeps the image-laden conversation under the model
// endpoint's request size limit.
package context

import (
	"encoding/json"

	"github.com/entrhq/n1browse/pkg/types"
)

// OmittedScreenshotText replaces a dropped image in place.
const OmittedScreenshotText = "[screenshot omitted to fit request size]"

// EstimateSize returns the byte length of the messages' wire encoding.
func EstimateSize(messages []*types.Message) int {
	data, err := json.Marshal(messages)
	if err != nil {
		return 0
	}
	return len(data)
}

func partSize(p types.ContentPart) int {
	data, err := json.Marshal(p)
	if err != nil {
		return 0
	}
	return len(data)
}

// TrimImagesToFit drops the oldest images until the conversation encodes to
// at most maxBytes, or until only the newest keepRecent image-bearing
// messages still carry images. Each dropped image becomes a text placeholder;
// surrounding text is never touched. Messages are modified in place.
//
// It returns the final estimated size and the number of images removed.
// Calling it again with the same budget removes nothing.
func TrimImagesToFit(messages []*types.Message, maxBytes, keepRecent int) (sizeBytes, removed int) {
	sizeBytes = EstimateSize(messages)
	if sizeBytes <= maxBytes {
		return sizeBytes, 0
	}
	if keepRecent < 0 {
		keepRecent = 0
	}

	var bearing []int
	for i, msg := range messages {
		if msg != nil && msg.ImageCount() > 0 {
			bearing = append(bearing, i)
		}
	}
	if len(bearing) <= keepRecent {
		return sizeBytes, 0
	}

	placeholder := types.TextPart(OmittedScreenshotText)
	placeholderSize := partSize(placeholder)

	for _, idx := range bearing[:len(bearing)-keepRecent] {
		parts := messages[idx].Parts
		for j := range parts {
			if sizeBytes <= maxBytes {
				return sizeBytes, removed
			}
			if !parts[j].IsImage() {
				continue
			}
			sizeBytes -= partSize(parts[j]) - placeholderSize
			parts[j] = placeholder
			removed++
		}
	}
	return sizeBytes, removed
}

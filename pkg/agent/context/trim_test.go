package context

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/entrhq/n1browse/pkg/types"
)

func screenshot(size int) types.Image {
	return types.Image{MIMEType: "image/jpeg", Base64: strings.Repeat("A", size)}
}

// conversation builds a system prompt, a seeded user turn, and n tool turns,
// each carrying one image of imageSize base64 bytes.
func conversation(n, imageSize int) []*types.Message {
	msgs := []*types.Message{
		types.NewSystemMessage("system prompt"),
		types.NewUserImageMessage("[Steps remaining: 10]\nfind something", screenshot(imageSize)),
	}
	for i := 0; i < n; i++ {
		msgs = append(msgs,
			types.NewAssistantMessage("", types.ToolCall{ID: fmt.Sprintf("c%d", i), Name: "wait", Arguments: "{}"}),
			types.NewToolMessage(fmt.Sprintf("c%d", i), fmt.Sprintf("[Steps remaining: %d]\nCurrent URL: https://x", 9-i), screenshot(imageSize)),
		)
	}
	return msgs
}

func totalImages(msgs []*types.Message) int {
	n := 0
	for _, m := range msgs {
		n += m.ImageCount()
	}
	return n
}

func TestTrimUnderBudgetIsNoop(t *testing.T) {
	msgs := conversation(3, 100)
	before := EstimateSize(msgs)

	size, removed := TrimImagesToFit(msgs, before, 1)

	assert.Equal(t, before, size)
	assert.Zero(t, removed)
	assert.Equal(t, 4, totalImages(msgs))
}

func TestTrimDropsOldestFirst(t *testing.T) {
	msgs := conversation(3, 10_000)
	full := EstimateSize(msgs)

	// Room for roughly two images.
	size, removed := TrimImagesToFit(msgs, full-15_000, 1)

	assert.Equal(t, 2, removed)
	assert.LessOrEqual(t, size, full-15_000)
	assert.Equal(t, EstimateSize(msgs), size, "reported size matches the real encoding")

	// The seeded user turn and the first tool turn lost their images.
	assert.Zero(t, msgs[1].ImageCount())
	assert.Zero(t, msgs[3].ImageCount())
	assert.Equal(t, 1, msgs[5].ImageCount())
	assert.Equal(t, 1, msgs[7].ImageCount())
}

func TestTrimKeepsTextAndPlaceholder(t *testing.T) {
	msgs := conversation(2, 5_000)

	_, removed := TrimImagesToFit(msgs, 0, 1)
	require.Equal(t, 2, removed)

	user := msgs[1]
	require.Len(t, user.Parts, 2)
	assert.Equal(t, types.PartTypeText, user.Parts[0].Type)
	assert.Equal(t, "[Steps remaining: 10]\nfind something", user.Parts[0].Text)
	assert.Equal(t, OmittedScreenshotText, user.Parts[1].Text)

	tool := msgs[3]
	require.Len(t, tool.Parts, 2)
	assert.Contains(t, tool.Parts[0].Text, "Current URL")
	assert.Equal(t, OmittedScreenshotText, tool.Parts[1].Text)
}

func TestTrimNeverDropsRecent(t *testing.T) {
	msgs := conversation(4, 2_000)

	size, removed := TrimImagesToFit(msgs, 10, 3)

	assert.Equal(t, 2, removed)
	assert.Equal(t, 3, totalImages(msgs))
	assert.Greater(t, size, 10, "budget may remain exceeded")
}

func TestTrimIdempotent(t *testing.T) {
	msgs := conversation(5, 3_000)
	budget := EstimateSize(msgs) / 2

	first, removed := TrimImagesToFit(msgs, budget, 2)
	require.Positive(t, removed)

	second, again := TrimImagesToFit(msgs, budget, 2)
	assert.Zero(t, again)
	assert.Equal(t, first, second)
}

func TestTrimProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "toolTurns")
		imageSize := rapid.IntRange(1, 5_000).Draw(t, "imageSize")
		keep := rapid.IntRange(1, 5).Draw(t, "keepRecent")

		msgs := conversation(n, imageSize)
		full := EstimateSize(msgs)
		budget := rapid.IntRange(0, full+10).Draw(t, "budget")
		images := totalImages(msgs)

		size, removed := TrimImagesToFit(msgs, budget, keep)

		if size != EstimateSize(msgs) {
			t.Fatalf("reported size %d, actual %d", size, EstimateSize(msgs))
		}
		if totalImages(msgs) != images-removed {
			t.Fatalf("removed %d but image count went %d -> %d", removed, images, totalImages(msgs))
		}
		if size > budget && totalImages(msgs) != min(keep, images) {
			t.Fatalf("over budget (%d > %d) with %d images left, keep=%d", size, budget, totalImages(msgs), keep)
		}
		if totalImages(msgs) < min(keep, images) {
			t.Fatalf("dropped recent images: %d left, keep=%d", totalImages(msgs), keep)
		}

		_, again := TrimImagesToFit(msgs, budget, keep)
		if again != 0 {
			t.Fatalf("second pass removed %d", again)
		}
	})
}

func TestTrimmerReport(t *testing.T) {
	msgs := conversation(3, 10_000)
	trimmer := NewTrimmer(1, nil, nil)

	report := trimmer.Fit(msgs, EstimateSize(msgs)-15_000)

	assert.Equal(t, 2, report.Removed)
	assert.Equal(t, EstimateSize(msgs), report.SizeBytes)
	assert.Positive(t, report.TextTokens)
	assert.InDelta(t, float64(report.SizeBytes)/(1024*1024), report.SizeMB(), 1e-12)
	assert.Equal(t, 1, trimmer.KeepRecent())
}

package util

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
)

// ParseModality accepts "text", "image" or "audio" and the plural forms
// used for the raw directories.
func ParseModality(s string) (common.Modality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "texts":
		return common.ModalityText, nil
	case "image", "images":
		return common.ModalityImage, nil
	case "audio", "audios":
		return common.ModalityAudio, nil
	}
	return "", fmt.Errorf("unknown modality %q", s)
}

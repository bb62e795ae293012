package schema

import (
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
)

// ParseFragment validates raw against FragmentContract and decodes it.
// Collections are never nil in the returned fragment.
func ParseFragment(raw []byte) (common.Fragment, error) {
	if err := ValidateFragment(raw); err != nil {
		return common.Fragment{}, err
	}

	frag := common.NewFragment()
	if err := json.Unmarshal(raw, &frag); err != nil {
		return common.Fragment{}, fmt.Errorf("failed to decode fragment: %w", err)
	}
	return frag, nil
}

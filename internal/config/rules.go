package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/pattern"
)

// LoadImportRules reads the import.rules list used to categorize statement lines.
//
// Example:
//
//	import:
//	  rules:
//	    - pattern: perekrestok
//	      category: Food
//	    - pattern: "^(uber|yandex go)"
//	      regex: true
//	      category: Transport
//	      amount_condition: lt
//	      amount_value: 5000
func LoadImportRules() ([]pattern.Rule, error) {
	var rules []pattern.Rule
	if err := viper.UnmarshalKey("import.rules", &rules); err != nil {
		return nil, fmt.Errorf("%w: import.rules: %v", common.ErrInvalidConfig, err)
	}
	return rules, nil
}

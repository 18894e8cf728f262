package classifier

import "github.com/therealutkarshpriyadarshi/logcat/pkg/types"

// Rule binds a category to its ordered list of patterns
type Rule struct {
	Category types.Category
	Patterns []string
}

// DefaultRules returns the built-in taxonomy in priority order. Earlier rules win
// when a record matches patterns from more than one category.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: types.CategoryBluetooth,
			Patterns: []string{`bt_`, `Bluetooth`, `BLE_`, `AdapterState`},
		},
		{
			Category: types.CategoryNetwork,
			Patterns: []string{`Netd`, `ConnectivityService`, `DnsResolver`, `network`, `ECONNREFUSED`, `Network is unreachable`},
		},
		{
			Category: types.CategoryANR,
			Patterns: []string{`ANR`, `Application Not Responding`},
		},
		{
			Category: types.CategoryService,
			Patterns: []string{`Bad service name`, `unable to connect to service`, `ServiceSpecificException`},
		},
		{
			Category: types.CategoryFile,
			Patterns: []string{`FileNotFoundException`, `ENOENT`, `open failed`},
		},
		{
			Category: types.CategoryPermission,
			Patterns: []string{`Permission denied`, `getpgid.*failed`},
		},
		{
			Category: types.CategoryMemory,
			Patterns: []string{`libdebuggerd`, `tombstoned`, `crash_dump`},
		},
	}
}

// Categories returns every category label, including the fallback, in priority order
func Categories() []types.Category {
	rules := DefaultRules()
	categories := make([]types.Category, 0, len(rules)+1)
	for _, rule := range rules {
		categories = append(categories, rule.Category)
	}
	return append(categories, types.CategoryOther)
}

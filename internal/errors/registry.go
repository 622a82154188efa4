package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vango.dev/docs/store/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E101-E119)
	// ============================================

	"E101": {
		Category: CategoryRuntime,
		Message:  "Store mutated during render",
		Detail:   "The store must not be written while a rendering unit is tracking dependencies.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryRuntime,
		Message:  "Global store root read during render",
		Detail:   "Rendering units must read through the per-render view they are handed, not the global root.",
		DocURL:   docBase + "E102",
	},
	"E103": {
		Category: CategoryInternal,
		Message:  "Nested tracking",
		Detail:   "A rendering unit started tracking while another unit was still active.",
		DocURL:   docBase + "E103",
	},
	"E104": {
		Category: CategoryInternal,
		Message:  "Unexpected container kind",
		Detail:   "A value that is not a Record, Sequence, Map or Set was treated as a container.",
		DocURL:   docBase + "E104",
	},
	"E105": {
		Category: CategoryRuntime,
		Message:  "Path not found",
		Detail:   "The path does not resolve to a value in the store.",
		DocURL:   docBase + "E105",
	},
	"E106": {
		Category: CategoryRuntime,
		Message:  "Unexpected value kind",
		Detail:   "The value at this path is not the container kind that was asked for.",
		DocURL:   docBase + "E106",
	},
	"E107": {
		Category: CategoryRuntime,
		Message:  "Component not mounted",
		Detail:   "The component was unmounted or belongs to another scheduler.",
		DocURL:   docBase + "E107",
	},
	"E108": {
		Category: CategoryRuntime,
		Message:  "Key not comparable",
		Detail:   "Map keys and Set members must be comparable values such as strings, numbers or containers.",
		DocURL:   docBase + "E108",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid vango-store.json",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   docBase + "E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid metrics namespace",
		Detail:   "The metrics namespace must be a valid Prometheus metric name prefix.",
		DocURL:   docBase + "E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid inspector address",
		Detail:   "The inspector address must be a host:port pair.",
		DocURL:   docBase + "E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid log settings",
		Detail:   "The log level must be debug, info, warn or error and the format text or json.",
		DocURL:   docBase + "E123",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Invalid scenario file",
		Detail:   "The scenario could not be read or decoded.",
		DocURL:   docBase + "E140",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Config file not found",
		Detail:   "No vango-store.json found in the given directory.",
		DocURL:   docBase + "E141",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Unknown scenario step",
		Detail:   "The scenario contains a step with an unsupported op.",
		DocURL:   docBase + "E142",
	},
	"E143": {
		Category: CategoryCLI,
		Message:  "Scenario expectation failed",
		Detail:   "A value or re-render set differed from what the scenario expected.",
		DocURL:   docBase + "E143",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

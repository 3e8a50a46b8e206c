package validator

const (
	Required = "required"
	Min      = "min"
	Max      = "max"
	UUID     = "uuid"
	URL      = "url"
	Unique   = "unique"
	NotEmpty = "not_empty"
	ModuleID = "module_id"
	Action   = "action"
)

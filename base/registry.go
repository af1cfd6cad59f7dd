package base

// RegistrySep is a name separator for building implementation hierarchy.
const RegistrySep = "."

// Registration is a common information about a registered driver or backend.
type Registration struct {
	Name     string // unique name
	Title    string // human-readable name
	Local    bool   // stores data on local disk or keeps it in-memory
	Volatile bool   // not persistent
}

// Validate panics if the registration cannot be added to a registry that already holds the given names.
func (r Registration) Validate(exists func(name string) bool) {
	if r.Name == "" {
		panic("name cannot be empty")
	} else if exists(r.Name) {
		panic(ErrRegistered{Name: r.Name})
	}
}

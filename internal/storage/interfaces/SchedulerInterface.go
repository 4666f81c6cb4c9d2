package interfaces

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}

// PrefSnapshotter is the part of the preference store the file manager needs.
type PrefSnapshotter interface {
	Snapshot() map[string]any
	Restore(values map[string]any)
}

package config

type WorkerKeyStruct struct {
	PersistProctorEventsQueue string
	PersistSubmissionsQueue   string
}

var WorkerKey = &WorkerKeyStruct{
	PersistProctorEventsQueue: "persist_proctor_events_queue",
	PersistSubmissionsQueue:   "persist_submissions_queue",
}

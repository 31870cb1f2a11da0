package library

// Event is a domain event emitted after a mutation has been persisted.
// Consumers trigger side effects (email, exports); none of them may fail the
// operation that produced the event.
type Event interface {
	event()
}

// NoteDeleted is emitted for every note that is permanently removed, whether
// by a direct delete or a bin purge.
type NoteDeleted struct {
	Owner Owner
	Note  Note
}

// FolderDeleted is emitted when a non-default folder is removed, carrying the
// folder and the notes that went with it.
type FolderDeleted struct {
	Owner  Owner
	Folder Folder
}

// LibraryCleared is emitted when every non-default folder is removed at once.
type LibraryCleared struct {
	Owner   Owner
	Folders []Folder
}

func (NoteDeleted) event()    {}
func (FolderDeleted) event()  {}
func (LibraryCleared) event() {}

// EventSink receives domain events. Publish must not block the caller beyond
// handing the event off.
type EventSink interface {
	Publish(Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(Event) {}

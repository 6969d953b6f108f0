package player

// Bridge carries commands to one native player backend and delivers its
// lifecycle events back as a normalized stream. The two real backends
// differ only in how a command is transmitted; that difference stays
// behind this interface and is invisible to the session state machine.
//
// Dispatch is fire-and-forget from the caller's perspective: completion,
// if observable at all, arrives later as an event.
type Bridge interface {
	Dispatch(cmd Command) error
	Subscribe(fn func(Event))
	Close() error
}

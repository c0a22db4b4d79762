// Package domain defines the core poll types and the contracts the app layer depends on.
//
// Concept-oriented files (poll.go, store.go, chat.go, display.go, errors.go) hold shared
// types and consumer-side interfaces. Apart from the small Poll state methods there is no
// implementation code here, which keeps adapters free of import cycles.
package domain

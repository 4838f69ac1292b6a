package domain

// KeyPrefix prefixes every key the service writes to the state store.
const KeyPrefix = "converse:"

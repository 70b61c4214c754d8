// Package credstore persists provisioning credentials and the device
// identity as string key/value pairs.
//
// Three backends implement Store:
//
//   - FileStore keeps all keys in one JSON file.
//   - SQLiteStore keeps them in a single table of a SQLite database.
//   - MemoryStore keeps them in memory and supports fault injection for tests.
//
// The helpers SaveRecord, SaveToken, LoadRecord and LoadIdentity work on any
// Store and define the key layout shared with the device firmware:
//
//	ssid, psw, token                                          credentials
//	product_id, device_name, device_secret, product_secret    identity
package credstore

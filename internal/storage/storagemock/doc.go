// Package storagemock has the storage mocks.
package storagemock

// Package progressmock has the progress mocks.
package progressmock

package memory

import "fmt"

// FormatBytes returns a human-readable byte size string using binary units.
// Examples: "0 Bytes", "512 Bytes", "1.5 KiB", "1.0 MiB", "10.0 GiB".
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 Bytes"
	}

	const (
		kib = 1024
		mib = 1024 * kib
		gib = 1024 * mib
		tib = 1024 * gib
		pib = 1024 * tib
	)

	switch {
	case bytes >= pib:
		return fmt.Sprintf("%.1f PiB", float64(bytes)/float64(pib))
	case bytes >= tib:
		return fmt.Sprintf("%.1f TiB", float64(bytes)/float64(tib))
	case bytes >= gib:
		return fmt.Sprintf("%.1f GiB", float64(bytes)/float64(gib))
	case bytes >= mib:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/float64(mib))
	case bytes >= kib:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/float64(kib))
	default:
		return fmt.Sprintf("%d Bytes", bytes)
	}
}

// Sizes of the in-memory representations the estimations account for.
const (
	BytesObjectHeader = 16
	BytesArrayHeader  = 16
	BytesInt64        = 8
	BytesFloat64      = 8
	BytesInt32        = 4
)

// SizeOfInt64Slice returns the bytes used by a slice of n int64 values.
func SizeOfInt64Slice(n int64) int64 {
	return align(BytesArrayHeader + n*BytesInt64)
}

// SizeOfFloat64Slice returns the bytes used by a slice of n float64 values.
func SizeOfFloat64Slice(n int64) int64 {
	return align(BytesArrayHeader + n*BytesFloat64)
}

// SizeOfInt32Slice returns the bytes used by a slice of n int32 values.
func SizeOfInt32Slice(n int64) int64 {
	return align(BytesArrayHeader + n*BytesInt32)
}

// SizeOfInstance returns the aligned size of an object with the given fields bytes.
func SizeOfInstance(fieldsBytes int64) int64 {
	return align(BytesObjectHeader + fieldsBytes)
}

// align rounds to the next multiple of 8 bytes.
func align(bytes int64) int64 {
	return (bytes + 7) &^ 7
}

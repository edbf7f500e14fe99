package webfs

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

const (
	mountKey   = attribute.Key("webfs.mount")
	addressKey = attribute.Key("webfs.address")
	nameKey    = attribute.Key("webfs.name")

	direntKey  = attribute.Key("dir.entries")
	recordsKey = attribute.Key("listing.records")
	sizeKey    = attribute.Key("file.size")
	modTimeKey = attribute.Key("file.modtime")
)

// The key of the mount being operated on.
//
// Type: string
// Required: Yes
// Examples: "https://example.com/pub/"
func Mount(key string) attribute.KeyValue {
	return mountKey.String(key)
}

// The address being operated on.
//
// Type: string
// Required: No
// Examples: "webfs:https://example.com/pub/docs/"
func Address(addr string) attribute.KeyValue {
	return addressKey.String(addr)
}

// The name being looked up in a directory.
//
// Type: string
// Required: No
// Examples: "README.md"
func Name(name string) attribute.KeyValue {
	return nameKey.String(name)
}

// The number of entries returned from a directory.
//
// Type: int
// Required: No
// Examples: 3, 0
func DirEntries(n int) attribute.KeyValue {
	return direntKey.Int(n)
}

// The number of records parsed from a listing, including the "." record.
//
// Type: int
// Required: No
// Examples: 4, 1
func ListingRecords(n int) attribute.KeyValue {
	return recordsKey.Int(n)
}

// The size of a file.
//
// Type: int64
// Required: No
// Examples: 1024, -1
func FileSize(n int64) attribute.KeyValue {
	return sizeKey.Int64(n)
}

// The modification time of a file.
//
// Type: time.Time
// Required: No
// Examples: "2021-08-21T11:10:00Z"
func FileModTime(t time.Time) attribute.KeyValue {
	return modTimeKey.String(t.Format(time.RFC3339))
}

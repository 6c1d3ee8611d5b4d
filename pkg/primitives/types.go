package primitives

// PageNumber identifies a page within a backing file.
// Page numbers are zero-based; page N lives at byte offset N * page size.
// The page count of a file is always derived from its current length,
// never cached.
type PageNumber uint64

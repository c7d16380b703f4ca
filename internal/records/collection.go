package records

// IndexOf returns the position of the record with the given id, or -1.
func IndexOf(collection []Record, id RecordID) int {
	for index, record := range collection {
		if record.ID.Equal(id) {
			return index
		}
	}
	return -1
}

// Prepend returns a new collection with record in front. An existing entry with the same
// id is dropped so identifiers stay unique.
func Prepend(collection []Record, record Record) []Record {
	result := make([]Record, 0, len(collection)+1)
	result = append(result, record)
	for _, existing := range collection {
		if !record.ID.IsZero() && existing.ID.Equal(record.ID) {
			continue
		}
		result = append(result, existing)
	}
	return result
}

// RemoveByID returns a new collection without the record carrying id and whether anything
// was removed. Removing an absent id is a no-op.
func RemoveByID(collection []Record, id RecordID) ([]Record, bool) {
	index := IndexOf(collection, id)
	if index < 0 {
		return collection, false
	}
	result := make([]Record, 0, len(collection)-1)
	result = append(result, collection[:index]...)
	result = append(result, collection[index+1:]...)
	return result, true
}

// Clone copies the collection slice. Records are values; Extra maps are shared and never
// mutated after decoding.
func Clone(collection []Record) []Record {
	if collection == nil {
		return []Record{}
	}
	result := make([]Record, len(collection))
	copy(result, collection)
	return result
}

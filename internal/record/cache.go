package record

// Cache holds already-resolved plaintext per tokenized field so repeated reads
// of a loaded record do not pay for repeated decrypt calls. Created lazily per
// record instance and cleared whenever the instance is reloaded from storage.
// Not safe for concurrent use; the owning record provides exclusivity.
type Cache struct {
	values map[string]string
}

// NewCache creates an empty decryption cache.
func NewCache() *Cache {
	return &Cache{values: make(map[string]string)}
}

// Get returns the cached plaintext for a field, if present.
func (c *Cache) Get(field string) (string, bool) {
	v, ok := c.values[field]
	return v, ok
}

// Put stores resolved plaintext for a field.
func (c *Cache) Put(field, value string) {
	c.values[field] = value
}

// Delete removes a single field from the cache.
func (c *Cache) Delete(field string) {
	delete(c.values, field)
}

// Clear drops all cached plaintext.
func (c *Cache) Clear() {
	c.values = make(map[string]string)
}

// Len returns the number of cached fields.
func (c *Cache) Len() int {
	return len(c.values)
}

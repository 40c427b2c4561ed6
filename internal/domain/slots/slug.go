package slots

import "github.com/google/uuid"

// slugAlphabet drops look-alike characters (0/o, 1/l/i, j) so codes survive
// being read aloud or retyped.
const slugAlphabet = "abcdefghkmnpqrstuvwxyz23456789"

// SlugLength is the number of characters in a share slug.
const SlugLength = 8

// randomBytes indexes the bytes of a v4 UUID that carry no version or
// variant bits.
var randomBytes = [SlugLength]int{0, 1, 2, 3, 4, 5, 7, 9}

// NewSlug returns a random share slug. Randomness comes from a v4 UUID,
// which google/uuid draws from crypto/rand.
func NewSlug() string {
	id := uuid.New()
	b := make([]byte, SlugLength)
	for i, idx := range randomBytes {
		b[i] = slugAlphabet[int(id[idx])%len(slugAlphabet)]
	}
	return string(b)
}

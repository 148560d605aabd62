package shortener

import "strings"

// Base62 alphabet (0-9, a-z, A-Z). The encoding is positional, so codes stay
// short: link id 125 becomes "21".
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// EncodeID turns a numeric link id into the short code used in /l/ URLs.
func EncodeID(id uint) string {
	if id == 0 {
		return string(alphabet[0])
	}

	base := uint(len(alphabet))
	var encoded []byte
	for id > 0 {
		encoded = append(encoded, alphabet[id%base])
		id = id / base
	}

	// Digits were produced least-significant first
	for i, j := 0, len(encoded)-1; i < j; i, j = i+1, j-1 {
		encoded[i], encoded[j] = encoded[j], encoded[i]
	}
	return string(encoded)
}

// DecodeID turns a short code back into the link id. Returns 0 and false for
// codes with characters outside the alphabet.
func DecodeID(encoded string) (uint, bool) {
	if encoded == "" {
		return 0, false
	}

	base := uint(len(alphabet))
	var id uint
	for i := 0; i < len(encoded); i++ {
		value := strings.IndexByte(alphabet, encoded[i])
		if value == -1 {
			return 0, false
		}
		id = id*base + uint(value)
	}
	return id, true
}

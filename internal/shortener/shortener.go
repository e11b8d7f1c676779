package shortener

const alphabet = "ynAJfoSgdXHB5VasEMtcbPCr1uNZ4LG723ehWkvwYR6KpxjTm8iQUFqz9D"

var alphabetLen = uint32(len(alphabet))

// Shorten converts a number to a short code over a 58-symbol alphabet.
func Shorten(id uint32) string {
	letters := []byte{}

	for {
		letters = append(letters, alphabet[id%alphabetLen])
		id /= alphabetLen

		if id == 0 {
			break
		}
	}

	return string(letters)
}

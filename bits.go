package microwire

// bitQueue accumulates MSB-first bits for transports that can only clock
// whole bytes.
type bitQueue struct {
	buf []byte
	n   int
}

func (q *bitQueue) push(data []byte, n int) {
	for i := range n {
		q.pushBit(data[i/8]&(0x80>>(i%8)) != 0)
	}
}

func (q *bitQueue) pushBit(b bool) {
	if q.n%8 == 0 {
		q.buf = append(q.buf, 0)
	}
	if b {
		q.buf[q.n/8] |= 0x80 >> (q.n % 8)
	}
	q.n++
}

func (q *bitQueue) reset() {
	q.buf = q.buf[:0]
	q.n = 0
}

// padded returns the queued bits followed by extra zero bits, shifted right
// so the total is a whole number of bytes. It also returns the number of
// leading pad bits.
func (q *bitQueue) padded(extra int) ([]byte, int) {
	total := q.n + extra
	pad := (8 - total%8) % 8
	out := &bitQueue{buf: make([]byte, 0, (pad+total)/8)}
	for range pad {
		out.pushBit(false)
	}
	out.push(q.buf, q.n)
	for range extra {
		out.pushBit(false)
	}
	return out.buf, pad
}

// extractBits copies n bits of src starting at bit off into dst, MSB first.
func extractBits(dst, src []byte, off, n int) {
	clear(dst)
	for i := range n {
		j := off + i
		if src[j/8]&(0x80>>(j%8)) != 0 {
			dst[i/8] |= 0x80 >> (i % 8)
		}
	}
}

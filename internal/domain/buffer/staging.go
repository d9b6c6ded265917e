package buffer

// Staging is a fixed-capacity byte buffer. Writes that would exceed the
// capacity fail with ErrBufferFull and leave the buffer unchanged.
type Staging struct {
	data []byte
}

func NewStaging(size int) *Staging {
	return &Staging{data: make([]byte, 0, size)}
}

func (s *Staging) Write(p []byte) (int, error) {
	if len(s.data)+len(p) > cap(s.data) {
		return 0, ErrBufferFull
	}
	s.data = append(s.data, p...)
	return len(p), nil
}

func (s *Staging) WriteString(str string) (int, error) {
	if len(s.data)+len(str) > cap(s.data) {
		return 0, ErrBufferFull
	}
	s.data = append(s.data, str...)
	return len(str), nil
}

func (s *Staging) WriteByte(c byte) error {
	if len(s.data) == cap(s.data) {
		return ErrBufferFull
	}
	s.data = append(s.data, c)
	return nil
}

// Bytes aliases the buffer contents. It is only valid until the lease is
// released.
func (s *Staging) Bytes() []byte {
	return s.data
}

func (s *Staging) Len() int {
	return len(s.data)
}

func (s *Staging) Cap() int {
	return cap(s.data)
}

// Truncate drops everything after the first n bytes.
func (s *Staging) Truncate(n int) {
	if n >= 0 && n < len(s.data) {
		s.data = s.data[:n]
	}
}

func (s *Staging) Reset() {
	s.data = s.data[:0]
}

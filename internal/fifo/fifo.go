package fifo

// Circular Fifo object used as the bounded buffer behind the pipeline sink
type Fifo struct {
	buffer   []byte
	writePos int
	readPos  int
}

func NewFifo(size uint16) *Fifo {
	f := &Fifo{
		buffer:   make([]byte, size),
		writePos: 0,
		readPos:  0,
	}
	return f
}

func (f *Fifo) Reset() {
	f.readPos = 0
	f.writePos = 0
}

func (f *Fifo) GetSpace() int {
	sizeLeft := f.readPos - f.writePos - 1
	if sizeLeft < 0 {
		sizeLeft += len(f.buffer)
	}
	return sizeLeft
}

func (f *Fifo) GetOccupied() int {
	sizeOccupied := f.writePos - f.readPos
	if sizeOccupied < 0 {
		sizeOccupied += len(f.buffer)
	}
	return sizeOccupied
}

// Write data to fifo and return the number of bytes written
func (f *Fifo) Write(buffer []byte) int {

	if buffer == nil {
		return 0
	}
	writeCounter := 0

	for _, element := range buffer {
		writePosNext := f.writePos + 1
		if writePosNext == f.readPos || (writePosNext == len(f.buffer) && f.readPos == 0) {
			break
		}
		f.buffer[f.writePos] = element
		writeCounter += 1
		if writePosNext == len(f.buffer) {
			f.writePos = 0
		} else {
			f.writePos += 1
		}
	}
	return writeCounter
}

// Read data from fifo and return number of bytes read
func (f *Fifo) Read(buffer []byte) int {
	var readCounter int = 0
	if buffer == nil {
		return 0
	}
	if f.readPos == f.writePos {
		return 0
	}
	for index := range buffer {
		if f.readPos == f.writePos {
			break
		}
		buffer[index] = f.buffer[f.readPos]

		readCounter++
		f.readPos++

		if f.readPos == len(f.buffer) {
			f.readPos = 0
		}
	}
	return readCounter
}

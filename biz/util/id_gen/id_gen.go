package id_gen

import (
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/gopkg/lang/fastrand"
)

// IDLength is the length of every generated id: a base36 millisecond timestamp
// padded with random alphanumerics.
const IDLength = 32

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func init() {
	idgen = NewIDGenerator(10)
}

func NewID() string {
	return idgen.NewID()
}

var idgen *IDGenerator

type IDGenerator struct {
	pool <-chan string
	stop chan any
}

func NewIDGenerator(maxSize int) *IDGenerator {
	stop := make(chan any)
	idgen := &IDGenerator{
		pool: newPool(maxSize, stop),
		stop: stop,
	}

	return idgen
}

func (idgen *IDGenerator) Stop() {
	select {
	case <-idgen.stop:
	default:
		close(idgen.stop)
	}
}

func (idgen *IDGenerator) NewID() string {
	return <-idgen.pool
}

func newPool(size int, stop chan any) <-chan string {
	pool := make(chan string, size)

	go func() {
		for {
			id := generate(time.Now())
			select {
			case <-stop:
				return
			case pool <- id:
			}
		}
	}()

	return pool
}

func generate(now time.Time) string {
	sb := strings.Builder{}
	sb.Grow(IDLength)
	sb.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	for sb.Len() < IDLength {
		sb.WriteByte(alphabet[fastrand.Intn(len(alphabet))])
	}
	return sb.String()
}

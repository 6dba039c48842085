package stream

import (
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// drain reads every event from r until exhaustion or error.
func drain(r *Reader) ([]Event, error) {
	var events []Event
	for {
		ev, err := r.Next()
		if err != nil {
			return events, err
		}
		if ev == nil {
			return events, nil
		}
		events = append(events, *ev)
	}
}

var _ = Describe("Reader", func() {
	It("decodes events from a body", func() {
		events, err := drain(NewReader(strings.NewReader(wellFormed)))
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(Equal(feedAll(wellFormed, nil)))
	})

	It("is unaffected by one-byte reads", func() {
		events, err := drain(NewReader(iotest.OneByteReader(strings.NewReader(wellFormed))))
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(Equal(feedAll(wellFormed, nil)))
	})

	It("returns nil on an empty body", func() {
		ev, err := NewReader(strings.NewReader("")).Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev).To(BeNil())
	})

	It("drops a tail with no line break", func() {
		events, err := drain(NewReader(strings.NewReader("data: {\"type\":\"content\",\"content\":\"a\"}\ndata: {\"type\":\"done\"}")))
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(events[0].Content).To(Equal("a"))
	})

	Context("when the connection fails", func() {
		It("delivers events read so far, then a transport error", func() {
			body := io.MultiReader(
				strings.NewReader("data: {\"type\":\"content\",\"content\":\"partial\"}\n"),
				iotest.ErrReader(errors.New("connection reset")),
			)
			r := NewReader(body)

			events, err := drain(r)
			Expect(events).To(HaveLen(1))
			Expect(events[0].Content).To(Equal("partial"))

			var te *TransportError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Error()).To(ContainSubstring("connection reset"))

			_, again := r.Next()
			Expect(again).To(Equal(err))
		})
	})

	It("counts skipped lines", func() {
		r := NewReader(strings.NewReader("data: nope\ndata: {\"type\":\"done\"}\n"))
		_, err := drain(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Skipped()).To(Equal(1))
	})

	It("closes closable sources", func() {
		rc := &closeRecorder{Reader: strings.NewReader("")}
		Expect(NewReader(rc).Close()).To(Succeed())
		Expect(rc.closed).To(BeTrue())
	})
})

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

package history_test

import (
	"context"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kbconsole/pkg/chat"
	"github.com/papercomputeco/kbconsole/pkg/history"
	"github.com/papercomputeco/kbconsole/pkg/stream"
)

func answered(query, answer string, sources ...stream.Source) *chat.Session {
	s := chat.NewSession()
	s.Begin(query)
	if len(sources) > 0 {
		s.Apply(stream.Event{Kind: stream.KindSources, Sources: sources})
	}
	s.Apply(stream.Event{Kind: stream.KindContent, Content: answer})
	s.Apply(stream.Event{Kind: stream.KindDone, SessionID: "remote-" + query})
	return s
}

var _ = Describe("Store", func() {
	var (
		store *history.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = history.NewStore(":memory:")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)
		ctx = context.Background()
	})

	It("round-trips messages and sources", func() {
		src := stream.Source{
			Title:      "Talk",
			Filename:   "talk.mp4",
			Type:       "video",
			Timestamps: []stream.Timestamp{{Start: 12, End: 40}},
		}
		s := answered("what was said?", "plenty", src)

		Expect(store.Save(ctx, s)).To(Succeed())

		got, err := store.Get(ctx, s.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(s.ID))
		Expect(got.RemoteID).To(Equal("remote-what was said?"))
		Expect(got.Messages).To(HaveLen(2))
		Expect(got.Messages[0].Role).To(Equal(chat.RoleUser))
		Expect(got.Messages[1].Content).To(Equal("plenty"))
		Expect(got.Messages[1].Sources).To(Equal([]stream.Source{src}))
		Expect(got.Messages[1].IsStreaming).To(BeFalse())
	})

	It("replaces messages when a session is saved again", func() {
		s := answered("first", "one")
		Expect(store.Save(ctx, s)).To(Succeed())

		s.Begin("second")
		s.Apply(stream.Event{Kind: stream.KindError, Message: "boom"})
		Expect(store.Save(ctx, s)).To(Succeed())

		got, err := store.Get(ctx, s.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Messages).To(HaveLen(4))
		Expect(got.Messages[3].Error).To(Equal("boom"))
	})

	It("skips messages that are still streaming", func() {
		s := chat.NewSession()
		s.Begin("pending")
		Expect(store.Save(ctx, s)).To(Succeed())

		got, err := store.Get(ctx, s.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Messages).To(HaveLen(1))
	})

	It("lists sessions with titles and counts", func() {
		Expect(store.Save(ctx, answered("alpha question", "a"))).To(Succeed())
		Expect(store.Save(ctx, answered("beta question", "b"))).To(Succeed())

		list, err := store.List(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(2))
		Expect(list).To(ContainElement(And(
			HaveField("Title", "alpha question"),
			HaveField("MessageCount", 2),
		)))

		list, err = store.List(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))
	})

	It("resolves unique id prefixes", func() {
		s := answered("q", "a")
		Expect(store.Save(ctx, s)).To(Succeed())

		got, err := store.Get(ctx, s.ID[:8])
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(s.ID))
	})

	It("deletes sessions and reports missing ones", func() {
		s := answered("q", "a")
		Expect(store.Save(ctx, s)).To(Succeed())
		Expect(store.Delete(ctx, s.ID)).To(Succeed())

		_, err := store.Get(ctx, s.ID)
		var notFound history.ErrNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
		Expect(notFound.ID).To(Equal(s.ID))

		Expect(store.Delete(ctx, s.ID)).To(MatchError(history.ErrNotFound{ID: s.ID}))
	})

	It("persists to a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "history.db")
		first, err := history.NewStore(path)
		Expect(err).NotTo(HaveOccurred())
		s := answered("q", "a")
		Expect(first.Save(ctx, s)).To(Succeed())
		Expect(first.Close()).To(Succeed())

		second, err := history.NewStore(path)
		Expect(err).NotTo(HaveOccurred())
		defer second.Close()

		got, err := second.Get(ctx, s.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Messages).To(HaveLen(2))
	})
})

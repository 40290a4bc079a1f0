package transcript_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/transcript"
)

// describeStorer runs the Storer contract against a backend.
func describeStorer(name string, open func() transcript.Storer) {
	Describe(name, func() {
		var (
			storer transcript.Storer
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			storer = open()
		})

		AfterEach(func() {
			Expect(storer.Close()).To(Succeed())
		})

		put := func(n *transcript.Node) {
			_, err := storer.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}

		It("stores and retrieves a node", func() {
			parent := transcript.NewNode(rec(llm.RoleUser, "Hi"), nil)
			child := transcript.NewNode(transcript.Record{Role: llm.RoleAssistant, Content: "Hello", Model: "m"}, parent)
			put(parent)
			put(child)

			got, err := storer.Get(ctx, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(child))
		})

		It("reports whether a put was new", func() {
			node := transcript.NewNode(rec(llm.RoleUser, "Hi"), nil)

			isNew, err := storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			isNew, err = storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeFalse())

			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(1))
		})

		It("rejects nil nodes", func() {
			_, err := storer.Put(ctx, nil)
			Expect(err).To(MatchError(ContainSubstring("nil node")))
		})

		It("returns ErrNotFound for unknown hashes", func() {
			_, err := storer.Get(ctx, "nonexistent")
			Expect(errors.Is(err, transcript.ErrNotFound)).To(BeTrue())
		})

		It("returns an empty list for an empty store", func() {
			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(BeEmpty())
		})

		It("finds roots, leaves and ancestry of a branched conversation", func() {
			root := transcript.NewNode(rec(llm.RoleSystem, "sys"), nil)
			user := transcript.NewNode(rec(llm.RoleUser, "2+2?"), root)
			a1 := transcript.NewNode(rec(llm.RoleAssistant, "4"), user)
			a2 := transcript.NewNode(rec(llm.RoleAssistant, "four"), user)
			other := transcript.NewNode(rec(llm.RoleSystem, "other"), nil)
			for _, n := range []*transcript.Node{root, user, a1, a2, other} {
				put(n)
			}

			roots, err := storer.Roots(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(HaveLen(2))

			leaves, err := storer.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(3))

			path, err := storer.Ancestry(ctx, a2.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HaveLen(3))
			Expect(path[0].Record.Content).To(Equal("four"))
			Expect(path[2].Record.Content).To(Equal("sys"))
		})
	})
}

var _ = Describe("Storer", func() {
	describeStorer("MemoryStorer", func() transcript.Storer {
		return transcript.NewMemoryStorer()
	})

	describeStorer("SQLiteStorer", func() transcript.Storer {
		s, err := transcript.NewSQLiteStorer(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates the SQLite database file", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "transcript.db")

		s, err := transcript.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})
})

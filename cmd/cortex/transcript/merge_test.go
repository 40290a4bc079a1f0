package transcriptcmder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/transcript"
)

func makeNode(role llm.Role, text string, parent *transcript.Node) *transcript.Node {
	return transcript.NewNode(transcript.Record{Role: role, Content: text, Model: "test-model"}, parent)
}

func seed(ctx context.Context, path string, nodes ...*transcript.Node) {
	s, err := transcript.NewSQLiteStorer(path)
	Expect(err).NotTo(HaveOccurred())
	defer s.Close()
	for _, n := range nodes {
		_, err := s.Put(ctx, n)
		Expect(err).NotTo(HaveOccurred())
	}
}

var _ = Describe("Merge Command", func() {
	var (
		ctx     context.Context
		tmpDir  string
		srcPath string
		dstPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "cortex-merge-test-*")
		Expect(err).NotTo(HaveOccurred())
		srcPath = filepath.Join(tmpDir, "source.db")
		dstPath = filepath.Join(tmpDir, "target.db")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("merges nodes from source into target", func() {
		nodeA := makeNode(llm.RoleUser, "hello from source", nil)
		nodeB := makeNode(llm.RoleAssistant, "hi back", nodeA)
		seed(ctx, srcPath, nodeA, nodeB)
		seed(ctx, dstPath, makeNode(llm.RoleUser, "already in target", nil))

		var out bytes.Buffer
		cmd := NewMergeCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--db", dstPath, srcPath})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		dst, err := transcript.NewSQLiteStorer(dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer dst.Close()

		nodes, err := dst.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(3))
		Expect(out.String()).To(ContainSubstring("Merged 2 new nodes from 1 sources"))
	})

	It("skips nodes the target already has", func() {
		nodeA := makeNode(llm.RoleUser, "shared", nil)
		seed(ctx, srcPath, nodeA)
		seed(ctx, dstPath, nodeA)

		var out bytes.Buffer
		cmd := NewMergeCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--db", dstPath, srcPath})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("0 new, 1 already existed"))
	})

	It("requires a target database", func() {
		GinkgoT().Setenv("CORTEX_TRANSCRIPT_DB", "")

		cmd := NewMergeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{srcPath})
		Expect(cmd.ExecuteContext(ctx)).To(MatchError(ContainSubstring("no transcript database")))
	})
})

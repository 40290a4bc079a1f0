package transcriptcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/server"
)

var _ = Describe("Push Command", func() {
	var (
		ctx       context.Context
		tmpDir    string
		localPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "cortex-push-test-*")
		Expect(err).NotTo(HaveOccurred())
		localPath = filepath.Join(tmpDir, "local.db")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	startServer := func() (string, func()) {
		srv, err := server.New(server.Config{SetupError: "chat disabled in tests"}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		srvCtx, cancel := context.WithCancel(ctx)
		go func() {
			_ = srv.RunWithListener(srvCtx, listener)
		}()

		cleanup := func() {
			cancel()
			srv.Close()
		}
		return "http://" + listener.Addr().String(), cleanup
	}

	totalNodes := func(addr string) int {
		resp, err := http.Get(addr + "/transcript/stats")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var stats map[string]any
		Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
		return int(stats["total_nodes"].(float64))
	}

	push := func(addr string) string {
		var out bytes.Buffer
		cmd := NewPushCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--db", localPath, addr})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())
		return out.String()
	}

	It("pushes local nodes to a remote server", func() {
		nodeA := makeNode(llm.RoleUser, "hello from push test", nil)
		nodeB := makeNode(llm.RoleAssistant, "hi back from push test", nodeA)
		seed(ctx, localPath, nodeA, nodeB)

		addr, cleanup := startServer()
		defer cleanup()

		Expect(push(addr)).To(ContainSubstring("Pushed 2 new nodes"))
		Expect(totalNodes(addr)).To(Equal(2))
	})

	It("deduplicates on double push", func() {
		seed(ctx, localPath, makeNode(llm.RoleUser, "dedup push test", nil))

		addr, cleanup := startServer()
		defer cleanup()

		push(addr)
		Expect(push(addr)).To(ContainSubstring("Pushed 0 new nodes (1 already existed"))
		Expect(totalNodes(addr)).To(Equal(1))
	})

	It("reports an empty archive", func() {
		seed(ctx, localPath)

		Expect(push("http://127.0.0.1:1")).To(ContainSubstring("No local nodes to push."))
	})
})

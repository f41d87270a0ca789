package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/threadworksco/strata/pkg/dotdir"
)

var _ = Describe("RunState", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "runstate-test-*")
		Expect(err).NotTo(HaveOccurred())

		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns nil when no run state exists", func() {
		state, err := m.LoadRunState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})

	It("round-trips a saved run state", func() {
		saved := &dotdir.RunState{
			RunID:            "run-123",
			ReportPath:       filepath.Join(tmpDir, "report.json"),
			FinishedAt:       time.Now().UTC().Truncate(time.Second),
			ThreadsCommitted: 7,
		}
		Expect(m.SaveRunState(saved, tmpDir)).To(Succeed())

		loaded, err := m.LoadRunState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).NotTo(BeNil())
		Expect(loaded.RunID).To(Equal("run-123"))
		Expect(loaded.ThreadsCommitted).To(Equal(7))
		Expect(loaded.FinishedAt).To(Equal(saved.FinishedAt))
	})

	It("overwrites on save", func() {
		Expect(m.SaveRunState(&dotdir.RunState{RunID: "first"}, tmpDir)).To(Succeed())
		Expect(m.SaveRunState(&dotdir.RunState{RunID: "second"}, tmpDir)).To(Succeed())

		loaded, err := m.LoadRunState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.RunID).To(Equal("second"))
	})

	It("clears run state", func() {
		Expect(m.SaveRunState(&dotdir.RunState{RunID: "run-1"}, tmpDir)).To(Succeed())
		Expect(m.ClearRunState(tmpDir)).To(Succeed())

		state, err := m.LoadRunState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})

	It("clear on missing state is a no-op", func() {
		Expect(m.ClearRunState(tmpDir)).To(Succeed())
	})

	It("rejects saving nil state", func() {
		Expect(m.SaveRunState(nil, tmpDir)).NotTo(Succeed())
	})
})

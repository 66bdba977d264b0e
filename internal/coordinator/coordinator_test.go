package coordinator_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/ssicon/screensaver-icon/internal/coordinator"
	"github.com/ssicon/screensaver-icon/internal/models"
	"github.com/ssicon/screensaver-icon/internal/screensaver"
	"github.com/ssicon/screensaver-icon/internal/screensaver/screensavertest"
)

var _ = Describe("Coordinator", func() {
	var (
		exec     *screensavertest.Executor
		bus      *fakePresence
		icon     *recordingIcon
		settings *models.Settings
		coord    *coordinator.Coordinator
		cancel   context.CancelFunc

		savedMu sync.Mutex
		saved   []bool
	)

	versionCount := func() int { return exec.Count("-version") }

	snapshot := func() coordinator.Snapshot {
		s, ok := coord.Snapshot()
		Expect(ok).To(BeTrue())
		return s
	}

	// finishQuery waits for the n-th status query and exits it with code.
	finishQuery := func(n, code int) {
		GinkgoHelper()
		Eventually(versionCount).Should(Equal(n))
		exec.Processes("-version")[n-1].Exit(screensavertest.ExitStatus(code))
	}

	start := func() {
		coord = coordinator.New(coordinator.Options{
			Settings: settings,
			Executor: exec,
			Locator:  bus,
			Icon:     icon,
			Logger:   zap.NewNop(),
			SaveAwayOnLock: func(enabled bool) error {
				savedMu.Lock()
				defer savedMu.Unlock()
				saved = append(saved, enabled)
				return nil
			},
		})

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		go coord.Run(ctx)
	}

	BeforeEach(func() {
		exec = screensavertest.NewExecutor()
		bus = &fakePresence{current: 2, idleAway: 5}
		icon = &recordingIcon{}
		saved = nil

		settings = models.NewSettings()
		settings.Timing.RestoreDelay = 50 * time.Millisecond
		settings.Timing.StartSettle = 50 * time.Millisecond
		settings.Timing.StopSettle = 30 * time.Millisecond
		settings.Timing.RefreshInterval = 0
		settings.Timing.WatchRetry = 50 * time.Millisecond
	})

	AfterEach(func() {
		if cancel != nil {
			cancel()
			Eventually(coord.Done()).Should(BeClosed())
		}
		cancel = nil
	})

	Describe("startup", func() {
		It("starts the watch process and queries the state", func() {
			start()

			Eventually(func() int { return exec.Count("-watch") }).Should(Equal(1))
			Eventually(versionCount).Should(Equal(1))
			Expect(exec.Last("-watch").Cmd.Name).To(Equal("xscreensaver-command"))

			finishQuery(1, 0)
			Eventually(icon.State).Should(Equal(screensaver.StateOn))
			Expect(icon.AwayOnLock()).To(BeTrue())
		})

		It("shows stopped when the control binary is missing", func() {
			exec.Fail("-version", errors.New("executable file not found in $PATH"))
			start()

			Eventually(icon.State).Should(Equal(screensaver.StateOff))
			Expect(icon.LastErr()).To(HaveOccurred())
			Expect(snapshot().QueryInFlight).To(BeFalse())
		})

		It("keeps retrying a watch process that cannot be spawned", func() {
			exec.Fail("-watch", errors.New("executable file not found in $PATH"))
			start()
			finishQuery(1, 0)

			Consistently(func() bool { return snapshot().WatchListening }, 120*time.Millisecond).Should(BeFalse())

			exec.Fail("-watch", nil)
			Eventually(func() bool { return snapshot().WatchListening }).Should(BeTrue())
			Expect(exec.Count("-watch")).To(Equal(1))
		})
	})

	Describe("screensaver events", func() {
		JustBeforeEach(func() {
			start()
			Eventually(func() int { return exec.Count("-watch") }).Should(Equal(1))
			finishQuery(1, 0)
		})

		Context("with away-on-lock enabled", func() {
			It("marks the user away on LOCK", func() {
				exec.Last("-watch").Emit("LOCK Fri Jul 12 10:00:10 2024")

				Eventually(bus.Activated).Should(Equal([]int32{5}))
				Eventually(func() bool { return snapshot().Away }).Should(BeTrue())
			})

			It("keeps handling events while the chat client is slow", func() {
				bus.Block()
				DeferCleanup(bus.Release)

				exec.Last("-watch").Emit("LOCK")
				Eventually(func() bool { return snapshot().PresenceBusy }).Should(BeTrue())

				coord.Refresh()
				Eventually(versionCount).Should(Equal(2))
				Expect(bus.Activated()).To(BeEmpty())

				bus.Release()
				Eventually(func() bool { return snapshot().Away }).Should(BeTrue())
				Expect(snapshot().PresenceBusy).To(BeFalse())
			})

			It("marks the user away on BLANK", func() {
				exec.Last("-watch").Emit("BLANK Fri Jul 12 10:00:00 2024")

				Eventually(bus.Activated).Should(Equal([]int32{5}))
			})

			It("does not re-set away on LOCK after BLANK", func() {
				proc := exec.Last("-watch")
				proc.Emit("BLANK")
				proc.Emit("LOCK")

				Eventually(func() bool { return snapshot().Away }).Should(BeTrue())
				Consistently(bus.Activated, 100*time.Millisecond).Should(Equal([]int32{5}))
			})

			It("restores the previous status after UNBLANK", func() {
				proc := exec.Last("-watch")
				proc.Emit("LOCK")
				Eventually(bus.Activated).Should(Equal([]int32{5}))

				proc.Emit("UNBLANK")
				Eventually(func() bool { return snapshot().RestorePending }).Should(BeTrue())
				Eventually(bus.Activated).Should(Equal([]int32{5, 2}))
				Expect(snapshot().Away).To(BeFalse())
			})

			It("absorbs an UNBLANK followed quickly by LOCK", func() {
				proc := exec.Last("-watch")
				proc.Emit("LOCK")
				proc.Emit("UNBLANK")
				proc.Emit("LOCK")

				Consistently(bus.Activated, 150*time.Millisecond).Should(Equal([]int32{5}))
				Expect(snapshot().Away).To(BeTrue())
			})

			It("ignores unknown lines", func() {
				proc := exec.Last("-watch")
				proc.Emit("RUN 3")
				proc.Emit("")
				proc.Emit("LOCK")

				Eventually(bus.Activated).Should(Equal([]int32{5}))
			})

			It("survives a missing chat client", func() {
				bus.SetErr(errors.New("connect session bus: dial unix: no such file"))
				exec.Last("-watch").Emit("LOCK")

				Consistently(func() bool { return snapshot().Away }, 100*time.Millisecond).Should(BeFalse())
				Expect(bus.Activated()).To(BeEmpty())
			})
		})

		Context("with the lock-only policy", func() {
			BeforeEach(func() {
				settings.AwayTrigger = models.AwayTriggerLock
			})

			It("ignores BLANK and sets away on LOCK", func() {
				proc := exec.Last("-watch")
				proc.Emit("BLANK")
				Consistently(bus.Activated, 100*time.Millisecond).Should(BeEmpty())

				proc.Emit("LOCK")
				Eventually(bus.Activated).Should(Equal([]int32{5}))
			})
		})

		Context("with away-on-lock disabled", func() {
			BeforeEach(func() {
				settings.AwayOnLock = false
			})

			It("leaves the status alone", func() {
				exec.Last("-watch").Emit("LOCK")

				Consistently(bus.Activated, 100*time.Millisecond).Should(BeEmpty())
				Expect(icon.AwayOnLock()).To(BeFalse())
			})
		})

		It("respawns the watch process when it exits", func() {
			exec.Last("-watch").Exit(nil)

			Eventually(func() int { return exec.Count("-watch") }).Should(Equal(2))
			Eventually(func() bool { return snapshot().WatchListening }).Should(BeTrue())

			exec.Last("-watch").Emit("LOCK")
			Eventually(bus.Activated).Should(Equal([]int32{5}))
		})

		It("respawns again after repeated exits", func() {
			for i := 1; i <= 3; i++ {
				exec.Last("-watch").Exit(screensavertest.ExitStatus(1))
				Eventually(func() int { return exec.Count("-watch") }).Should(Equal(i + 1))
			}
			Expect(snapshot().WatchListening).To(BeTrue())
		})
	})

	Describe("toggle", func() {
		It("stops a running screensaver and refreshes after the stop", func() {
			exec.AutoExit("-exit", nil)
			start()
			finishQuery(1, 0)
			Eventually(icon.State).Should(Equal(screensaver.StateOn))

			coord.Toggle()
			Eventually(versionCount).Should(Equal(2))
			Expect(exec.Count("-exit")).To(Equal(0))

			finishQuery(2, 0)
			Eventually(func() int { return exec.Count("-exit") }).Should(Equal(1))
			Eventually(versionCount).Should(Equal(3))
			Consistently(versionCount, 150*time.Millisecond).Should(Equal(3))
			Expect(exec.Count("-nosplash")).To(Equal(0))

			finishQuery(3, 1)
			Eventually(icon.State).Should(Equal(screensaver.StateOff))
		})

		It("starts a stopped screensaver and refreshes once", func() {
			start()
			finishQuery(1, 1)
			Eventually(icon.State).Should(Equal(screensaver.StateOff))

			coord.Toggle()
			finishQuery(2, 1)

			Eventually(func() int { return exec.Count("-nosplash") }).Should(Equal(1))
			Expect(exec.Last("-nosplash").Cmd.Name).To(Equal("xscreensaver"))
			Expect(exec.Last("-nosplash").Cmd.Detach).To(BeTrue())

			Eventually(versionCount).Should(Equal(3))
			Consistently(versionCount, 150*time.Millisecond).Should(Equal(3))
			Expect(exec.Count("-exit")).To(Equal(0))

			finishQuery(3, 0)
			Eventually(icon.State).Should(Equal(screensaver.StateOn))
		})

		It("shows the error when the screensaver cannot be started", func() {
			start()
			finishQuery(1, 1)
			Eventually(icon.State).Should(Equal(screensaver.StateOff))

			exec.Fail("-nosplash", errors.New("executable file not found in $PATH"))
			coord.Toggle()
			finishQuery(2, 1)

			Eventually(icon.LastErr).Should(HaveOccurred())
			Expect(icon.State()).To(Equal(screensaver.StateOff))
			Consistently(versionCount, 120*time.Millisecond).Should(Equal(2))
		})

		It("refreshes after a stop that finds nothing to stop", func() {
			exec.AutoExit("-exit", screensavertest.ExitStatus(1))
			start()
			finishQuery(1, 0)
			Eventually(icon.State).Should(Equal(screensaver.StateOn))

			coord.Toggle()
			finishQuery(2, 0)

			Eventually(versionCount).Should(Equal(3))
		})

		It("joins a query already in flight", func() {
			start()
			Eventually(versionCount).Should(Equal(1))

			coord.Toggle()
			coord.Refresh()
			Eventually(func() bool { return snapshot().ToggleIntent }).Should(BeTrue())
			Expect(versionCount()).To(Equal(1))

			finishQuery(1, 1)
			Eventually(func() int { return exec.Count("-nosplash") }).Should(Equal(1))
		})

		It("drops the toggle when the query cannot be spawned", func() {
			start()
			finishQuery(1, 1)
			Eventually(icon.State).Should(Equal(screensaver.StateOff))

			exec.Fail("-version", errors.New("executable file not found in $PATH"))
			coord.Toggle()

			Eventually(icon.LastErr).Should(HaveOccurred())
			s := snapshot()
			Expect(s.ToggleIntent).To(BeFalse())
			Expect(s.State).To(Equal(screensaver.StateOff))
			Expect(exec.Count("-nosplash")).To(Equal(0))
		})
	})

	Describe("refresh", func() {
		It("coalesces refreshes while a query is in flight", func() {
			start()
			Eventually(versionCount).Should(Equal(1))

			coord.Refresh()
			coord.Refresh()
			Consistently(versionCount, 100*time.Millisecond).Should(Equal(1))

			finishQuery(1, 0)
			Eventually(func() bool { return snapshot().QueryInFlight }).Should(BeFalse())

			coord.Refresh()
			Eventually(versionCount).Should(Equal(2))
		})

		It("refreshes periodically", func() {
			settings.Timing.RefreshInterval = 40 * time.Millisecond
			start()
			finishQuery(1, 0)

			Eventually(versionCount).Should(BeNumerically(">=", 2))
		})
	})

	Describe("away-on-lock option", func() {
		It("persists changes and restores when turned off while away", func() {
			start()
			finishQuery(1, 0)
			exec.Last("-watch").Emit("LOCK")
			Eventually(bus.Activated).Should(Equal([]int32{5}))

			coord.SetAwayOnLock(false)

			Eventually(bus.Activated).Should(Equal([]int32{5, 2}))
			Expect(icon.AwayOnLock()).To(BeFalse())
			savedMu.Lock()
			Expect(saved).To(Equal([]bool{false}))
			savedMu.Unlock()
		})

		It("applies reloaded settings without persisting them", func() {
			start()
			finishQuery(1, 0)

			reloaded := settings.Clone()
			reloaded.AwayTrigger = models.AwayTriggerLock
			reloaded.AwayOnLock = false
			coord.ApplySettings(reloaded)

			Eventually(func() bool { return snapshot().AwayOnLock }).Should(BeFalse())
			s := snapshot()
			Expect(s.AwayTrigger).To(Equal(models.AwayTriggerLock))
			Expect(icon.AwayOnLock()).To(BeFalse())
			savedMu.Lock()
			Expect(saved).To(BeEmpty())
			savedMu.Unlock()
		})
	})

	Describe("shutdown", func() {
		It("stops the watch process and restores presence", func() {
			start()
			finishQuery(1, 0)
			watch := exec.Last("-watch")
			watch.Emit("LOCK")
			Eventually(bus.Activated).Should(Equal([]int32{5}))

			coord.Quit()

			Eventually(coord.Done()).Should(BeClosed())
			Expect(watch.Terminated()).To(BeTrue())
			Expect(bus.Activated()).To(Equal([]int32{5, 2}))
			Expect(exec.Count("-watch")).To(Equal(1))

			_, ok := coord.Snapshot()
			Expect(ok).To(BeFalse())
		})

		It("restores presence when quitting while the away call is in flight", func() {
			bus.Block()
			DeferCleanup(bus.Release)

			start()
			finishQuery(1, 0)
			exec.Last("-watch").Emit("LOCK")
			Eventually(func() bool { return snapshot().PresenceBusy }).Should(BeTrue())

			coord.Quit()
			Consistently(coord.Done(), 50*time.Millisecond).ShouldNot(BeClosed())

			bus.Release()
			Eventually(coord.Done()).Should(BeClosed())
			Expect(bus.Activated()).To(Equal([]int32{5, 2}))
		})
	})
})

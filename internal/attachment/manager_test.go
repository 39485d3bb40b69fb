package attachment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"coopreg/internal/attachment/mocks"
	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/circuit"
	"coopreg/pkg/platform/sentinel"
)

type ManagerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	blobs   *mocks.MockBlobStore
	now     time.Time
	breaker *circuit.Breaker
	manager *Manager
	ctx     context.Context
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.blobs = mocks.NewMockBlobStore(s.ctrl)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.breaker = circuit.New("test",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return s.now }),
	)
	s.manager = New(s.blobs,
		WithBreaker(s.breaker),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.ctx = context.Background()
}

func (s *ManagerSuite) TestValidate() {
	ref, err := s.manager.Validate("certificate", "  uploads/cert-1.pdf ")
	s.Require().NoError(err)
	s.Equal("uploads/cert-1.pdf", ref)

	_, err = s.manager.Validate("certificate", `<script>x</script>`)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.manager.Validate("certificate", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ManagerSuite) TestResolve() {
	s.Run("empty reference resolves to nil without calling the store", func() {
		s.Nil(s.manager.Resolve(s.ctx, ""))
	})

	s.Run("resolved url", func() {
		s.blobs.EXPECT().Resolve(gomock.Any(), "ref-1").Return("https://files/blobs/ref-1", nil)
		url := s.manager.Resolve(s.ctx, "ref-1")
		s.Require().NotNil(url)
		s.Equal("https://files/blobs/ref-1", *url)
	})

	s.Run("failure yields nil", func() {
		s.blobs.EXPECT().Resolve(gomock.Any(), "ref-2").Return("", errors.New("boom"))
		s.Nil(s.manager.Resolve(s.ctx, "ref-2"))
	})
}

func (s *ManagerSuite) TestResolveShortCircuitsWhenOpen() {
	s.blobs.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return("", errors.New("down")).Times(2)
	s.Nil(s.manager.Resolve(s.ctx, "a"))
	s.Nil(s.manager.Resolve(s.ctx, "b"))

	// open: no call reaches the store until the cooldown elapses
	s.Nil(s.manager.Resolve(s.ctx, "c"))
}

func (s *ManagerSuite) TestDanglingReferencesLeaveBreakerClosed() {
	s.blobs.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return("", sentinel.ErrNotFound).Times(5)
	for _, ref := range []string{"missing-1", "missing-2", "missing-3", "missing-4", "missing-5"} {
		s.Nil(s.manager.Resolve(s.ctx, ref))
	}
	s.False(s.breaker.IsOpen())

	s.blobs.EXPECT().Resolve(gomock.Any(), "healthy").Return("https://files/blobs/healthy", nil)
	url := s.manager.Resolve(s.ctx, "healthy")
	s.Require().NotNil(url)
	s.Equal("https://files/blobs/healthy", *url)
}

func (s *ManagerSuite) TestAbandonedRequestsLeaveBreakerClosed() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.blobs.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return("", context.Canceled).Times(3)
	for _, ref := range []string{"a", "b", "c"} {
		s.Nil(s.manager.Resolve(ctx, ref))
	}
	s.False(s.breaker.IsOpen())
}

func (s *ManagerSuite) TestResolveMany() {
	s.blobs.EXPECT().Resolve(gomock.Any(), "x").Return("https://files/blobs/x", nil)
	s.blobs.EXPECT().Resolve(gomock.Any(), "y").Return("", sentinel.ErrNotFound)

	urls := s.manager.ResolveMany(s.ctx, []string{"x", "", "y"})
	s.Require().Len(urls, 3)
	s.Require().NotNil(urls[0])
	s.Equal("https://files/blobs/x", *urls[0])
	s.Nil(urls[1])
	s.Nil(urls[2])
}

func (s *ManagerSuite) TestRelease() {
	s.Run("skips empty and duplicate references", func() {
		s.blobs.EXPECT().Delete(gomock.Any(), "a").Return(nil)
		s.blobs.EXPECT().Delete(gomock.Any(), "b").Return(nil)
		s.NoError(s.manager.Release(s.ctx, "a", "", "b", "a"))
	})

	s.Run("missing references count as released", func() {
		s.blobs.EXPECT().Delete(gomock.Any(), "gone").Return(sentinel.ErrNotFound)
		s.NoError(s.manager.Release(s.ctx, "gone"))
	})

	s.Run("store failure surfaces as dependency error", func() {
		s.blobs.EXPECT().Delete(gomock.Any(), "c").Return(errors.New("timeout"))
		s.blobs.EXPECT().Delete(gomock.Any(), "d").Return(nil)
		err := s.manager.Release(s.ctx, "c", "d")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDependency))
	})
}

func (s *ManagerSuite) TestSuperseded() {
	s.Equal([]string{"old-cert"}, Superseded([]string{"old-cert", "receipt"}, []string{"new-cert", "receipt"}))
	s.Empty(Superseded([]string{"", "receipt"}, []string{"cert", "receipt"}))
	s.Empty(Superseded(nil, []string{"a"}))
}

package client

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/amfctl/internal/config"
	"github.com/danmuck/amfctl/internal/game"
	"github.com/danmuck/amfctl/internal/protocol/amf"
	"github.com/danmuck/amfctl/internal/protocol/packet"
	"github.com/danmuck/amfctl/internal/testutil/testlog"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(args amf.Value) amf.Value

// fakeGame answers AMF calls by target.
type fakeGame struct {
	mu       sync.Mutex
	handlers map[string]handlerFunc
	requests []*http.Request
	bodies   []packet.Body
	versions []amf.Version
}

func (f *fakeGame) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := packet.Decode(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, ok := req.FirstBody()
	if !ok {
		http.Error(w, "no body", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, body)
	f.versions = append(f.versions, req.Version)
	h := f.handlers[body.TargetURI]
	f.mu.Unlock()

	if h == nil {
		http.Error(w, "unknown target", http.StatusNotFound)
		return
	}
	reply, err := packet.NewBuilder().
		WithDefaultVersion().
		Body(body.ResponseURI+"/onResult", "null", h(body.Data)).
		Build()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	b, err := reply.MarshalBinary()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(b)
}

func (f *fakeGame) targets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.bodies))
	for _, b := range f.bodies {
		out = append(out, b.TargetURI)
	}
	return out
}

func (f *fakeGame) lastArgs(t *testing.T) []amf.Value {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.bodies)
	arr, ok := f.bodies[len(f.bodies)-1].Data.(amf.Array)
	require.True(t, ok, "args should be an array, got %T", f.bodies[len(f.bodies)-1].Data)
	return arr.Items
}

func newTestClient(t *testing.T, handlers map[string]handlerFunc) (*Client, *fakeGame) {
	t.Helper()
	testlog.Start(t)

	fake := &fakeGame{handlers: handlers}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cc := config.DefaultClientConfig()
	cc.MinPause = 0
	cc.MaxPause = 0
	c, err := New(config.Account{
		ServerURL: srv.URL,
		Cookies:   []config.Cookie{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}},
		Client:    cc,
	})
	require.NoError(t, err)
	return c, fake
}

func obj(props ...amf.Property) handlerFunc {
	return func(amf.Value) amf.Value { return amf.NewObject(props...) }
}

func TestResolveServer(t *testing.T) {
	require.Equal(t, "http://pvz-s6.youkia.com", ResolveServer(6))
	require.Equal(t, "http://s12.youkia.pvz.youkia.com", ResolveServer(12))
	require.Equal(t, "http://s36.youkia.pvz.youkia.com", ResolveServer(36))
}

func TestNewRequiresServer(t *testing.T) {
	_, err := New(config.Account{Client: config.DefaultClientConfig()})
	require.ErrorIs(t, err, ErrNoServer)

	c, err := New(config.Account{Server: 36, Client: config.DefaultClientConfig()})
	require.NoError(t, err)
	require.Equal(t, "http://s36.youkia.pvz.youkia.com", c.ServerURL())
}

func TestCallSendsHeadersAndPacket(t *testing.T) {
	c, fake := newTestClient(t, map[string]handlerFunc{
		"svc.echo": func(args amf.Value) amf.Value { return args },
	})

	reply, err := c.Call(context.Background(), "svc.echo", "/1", amf.Numbers(7))
	require.NoError(t, err)
	body, ok := reply.FirstBody()
	require.True(t, ok)
	require.Equal(t, "/1/onResult", body.TargetURI)
	require.Equal(t, amf.Numbers(7), body.Data)

	req := fake.requests[0]
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/pvz/amf/", req.URL.Path)
	require.Equal(t, "a=1;b=2;", req.Header.Get("Cookie"))
	require.Equal(t, c.ServerURL()+"/main.swf", req.Header.Get("Referer"))
	require.Equal(t, config.DefaultFlashVersion, req.Header.Get("x-flash-version"))
	require.Equal(t, "application/x-amf", req.Header.Get("Content-Type"))
	require.Equal(t, amf.Format3, fake.versions[0])
	require.Equal(t, "/1", fake.bodies[0].ResponseURI)
}

func TestCookies(t *testing.T) {
	c, fake := newTestClient(t, map[string]handlerFunc{"svc.echo": obj()})

	v, ok := c.Cookie("b")
	require.True(t, ok)
	require.Equal(t, "2", v)

	old, ok := c.SetCookie("a", "9")
	require.True(t, ok)
	require.Equal(t, "1", old)

	_, ok = c.SetCookie("c", "3")
	require.False(t, ok)

	_, err := c.Call(context.Background(), "svc.echo", "/1", amf.Null{})
	require.NoError(t, err)
	require.Equal(t, "a=9;b=2;c=3;", fake.requests[0].Header.Get("Cookie"))
}

func TestSkillUp(t *testing.T) {
	c, fake := newTestClient(t, map[string]handlerFunc{
		game.TargetSkillUp: func(args amf.Value) amf.Value {
			skill := args.(amf.Array).Items[1].(amf.Number)
			if skill == 10 {
				return amf.NewObject(amf.Prop("now_id", amf.String("11")))
			}
			return amf.NewObject(amf.Prop("now_id", skill))
		},
	})

	now, err := c.SkillUp(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Equal(t, 11.0, now)
	require.Equal(t, []amf.Value{amf.Number(5), amf.Number(10)}, fake.lastArgs(t))

	now, err = c.SkillUp(context.Background(), 5, 11)
	require.NoError(t, err)
	require.Equal(t, 11.0, now)
}

func TestQualityUpTargets(t *testing.T) {
	c, fake := newTestClient(t, map[string]handlerFunc{
		"api.apiorganism.qualityUp":   obj(amf.Prop("quality_name", amf.String("史诗"))),
		"api.apiorganism.quality12Up": obj(amf.Prop("quality_name", amf.String("魔神"))),
	})

	q, err := c.QualityUp(context.Background(), game.QualityUpGeneral, 3)
	require.NoError(t, err)
	require.Equal(t, game.QualityEpic, q)

	q, err = c.QualityUp(context.Background(), game.QualityUpMoshen, 3)
	require.NoError(t, err)
	require.Equal(t, game.QualityDemonGod, q)
	require.Equal(t, []string{"api.apiorganism.qualityUp", "api.apiorganism.quality12Up"}, fake.targets())
}

func TestServerRefusal(t *testing.T) {
	c, _ := newTestClient(t, map[string]handlerFunc{
		game.TargetOpenBox:    obj(amf.Prop("desctiption", amf.String("道具数量不足"))),
		game.TargetDutyReward: obj(amf.Prop("description", amf.String("ERR_42"))),
	})

	err := c.OpenBox(context.Background(), 1, 10)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "道具数量不足", se.Description)
	require.Contains(t, err.Error(), "道具数量不足")

	err = c.DutyReward(context.Background(), 1, game.DutyCategoryDaily)
	require.ErrorAs(t, err, &se)
	require.Contains(t, err.Error(), "reply has no user_exp")
	require.NotContains(t, err.Error(), "ERR_42")
}

func TestFubenRewardAndReset(t *testing.T) {
	c, fake := newTestClient(t, map[string]handlerFunc{
		game.TargetFubenReward: obj(
			amf.Prop("integral", amf.Number(40)),
			amf.Prop("medal", amf.NewObject(amf.Prop("amount", amf.Integer(3)))),
		),
	})

	got, err := c.FubenReward(context.Background(), 12)
	require.NoError(t, err)
	require.Equal(t, FubenReward{Integral: 40, Medals: 3}, got)

	require.NoError(t, c.ResetFubenReward(context.Background(), 12))
	require.Equal(t, []amf.Value{amf.String("12.9999999999111")}, fake.lastArgs(t))
}

func TestChallengeCollectsLottery(t *testing.T) {
	c, fake := newTestClient(t, map[string]handlerFunc{
		"api.stone.challenge": obj(
			amf.Prop("is_winning", amf.Boolean(true)),
			amf.Prop("awards_key", amf.String("k-1")),
		),
		game.TargetLottery: obj(),
	})

	win, err := c.Challenge(context.Background(), game.ChallengeStone, 4, []float64{1, 2})
	require.NoError(t, err)
	require.True(t, win)
	require.Equal(t, []string{"api.stone.challenge", game.TargetLottery}, fake.targets())
	require.Equal(t, []amf.Value{amf.String("k-1")}, fake.lastArgs(t))
}

func TestChallengeMissingFields(t *testing.T) {
	c, _ := newTestClient(t, map[string]handlerFunc{
		"api.fuben.challenge": obj(amf.Prop("desctiption", amf.String("体力不足"))),
	})
	_, err := c.Challenge(context.Background(), game.ChallengeFuben, 4, []float64{1})
	var se *ServerError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "体力不足", se.Description)
}

func TestCallRejectsBadStatus(t *testing.T) {
	c, _ := newTestClient(t, nil)
	_, err := c.Call(context.Background(), "svc.unknown", "/1", amf.Null{})
	require.ErrorIs(t, err, ErrHTTPStatus)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.Code)
}

func TestCallRejectsMalformedReply(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0x00, 0x03, 0x00})
	}))
	defer srv.Close()

	c, err := New(config.Account{ServerURL: srv.URL, Client: config.DefaultClientConfig()})
	require.NoError(t, err)
	_, err = c.Call(context.Background(), "svc", "/1", amf.Null{})
	require.ErrorIs(t, err, packet.ErrTruncated)
}

func TestCallEnforcesResponseLimit(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	cc := config.DefaultClientConfig()
	cc.MaxResponseBytes = 16
	c, err := New(config.Account{ServerURL: srv.URL, Client: cc})
	require.NoError(t, err)
	_, err = c.Call(context.Background(), "svc", "/1", amf.Null{})
	require.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestSkillUpUntil(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, map[string]handlerFunc{
		game.TargetSkillUp: func(args amf.Value) amf.Value {
			calls++
			skill := args.(amf.Array).Items[1].(amf.Number)
			if calls%2 == 0 {
				skill++
			}
			return amf.NewObject(amf.Prop("now_id", skill))
		},
	})

	var steps []SkillStep
	final, err := c.SkillUpUntil(context.Background(), 1, 100,
		func(_, ups int) bool { return ups >= 2 },
		func(s SkillStep) { steps = append(steps, s) })
	require.NoError(t, err)
	require.Equal(t, 102.0, final)
	require.Len(t, steps, 4)
	require.Equal(t, SkillStep{Attempt: 2, From: 100, To: 101, Ups: 1}, steps[1])

	final, err = c.SkillUpUntil(context.Background(), 1, 7, func(attempts, _ int) bool { return attempts >= 0 }, nil)
	require.NoError(t, err)
	require.Equal(t, 7.0, final)
}

func TestQualityUpUntil(t *testing.T) {
	rolls := []string{"普通", "普通", "史诗"}
	i := 0
	c, _ := newTestClient(t, map[string]handlerFunc{
		"api.apiorganism.qualityUp": func(amf.Value) amf.Value {
			name := rolls[i%len(rolls)]
			i++
			return amf.NewObject(amf.Prop("quality_name", amf.String(name)))
		},
	})

	var steps []QualityStep
	q, err := c.QualityUpUntil(context.Background(), game.QualityUpGeneral, 1,
		func(_ int, q game.Quality) bool { return q == game.QualityEpic },
		func(s QualityStep) { steps = append(steps, s) })
	require.NoError(t, err)
	require.Equal(t, game.QualityEpic, q)
	require.Len(t, steps, 3)
	require.False(t, steps[1].Changed)
	require.True(t, steps[2].Changed)
}

func TestOpenBoxRepeat(t *testing.T) {
	c, fake := newTestClient(t, map[string]handlerFunc{
		game.TargetOpenBox: obj(amf.Prop("tools", amf.NewArray())),
	})
	opened, err := c.OpenBoxRepeat(context.Background(), 9, 10, 3, nil)
	require.NoError(t, err)
	require.Equal(t, 30, opened)
	require.Len(t, fake.targets(), 3)
	require.Equal(t, []amf.Value{amf.Number(9), amf.Number(10)}, fake.lastArgs(t))
}

func TestDutyRewardsContinuesPastFailures(t *testing.T) {
	c, _ := newTestClient(t, map[string]handlerFunc{
		game.TargetDutyReward: func(args amf.Value) amf.Value {
			if args.(amf.Array).Items[0] == amf.Number(2) {
				return amf.NewObject()
			}
			return amf.NewObject(amf.Prop("user_exp", amf.Integer(10)))
		},
	})

	var reported []float64
	collected, err := c.DutyRewards(context.Background(), []float64{1, 2, 3}, game.DutyCategoryDaily,
		func(id float64, _ error) { reported = append(reported, id) })
	require.Equal(t, 2, collected)
	require.Equal(t, []float64{1, 2, 3}, reported)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
}

func TestResetAndCollectFuben(t *testing.T) {
	nexts := []float64{1, 2, 4}
	claims := 0
	c, fake := newTestClient(t, map[string]handlerFunc{
		game.TargetFubenReward: obj(
			amf.Prop("integral", amf.Number(0)),
			amf.Prop("medal", amf.NewObject(amf.Prop("amount", amf.Number(3)))),
		),
		game.TargetFubenAward: func(args amf.Value) amf.Value {
			n := nexts[claims%len(nexts)]
			claims++
			return amf.NewObject(amf.Prop("next", amf.Number(n)))
		},
	})

	var steps []FubenStep
	start, err := c.ResetAndCollectFuben(context.Background(), 5, 1, func(s FubenStep) { steps = append(steps, s) })
	require.NoError(t, err)
	require.Equal(t, 3, start.Medals)
	require.Len(t, steps, 3)
	require.True(t, steps[2].Done)
	require.Equal(t, []amf.Value{amf.String(game.MedalAward), amf.Number(5)}, fake.lastArgs(t))
}

func TestChallengeRepeat(t *testing.T) {
	c, _ := newTestClient(t, map[string]handlerFunc{
		"api.fuben.challenge": obj(amf.Prop("is_winning", amf.Boolean(false)), amf.Prop("awards_key", amf.String(""))),
	})
	wins, err := c.ChallengeRepeat(context.Background(), game.ChallengeFuben, 1, []float64{1}, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 0, wins)
}

func TestPause(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		d := NextPauseDelay(800*time.Millisecond, 1400*time.Millisecond, rng)
		require.GreaterOrEqual(t, d, 800*time.Millisecond)
		require.Less(t, d, 1400*time.Millisecond)
	}
	require.Equal(t, 5*time.Millisecond, NextPauseDelay(5*time.Millisecond, 5*time.Millisecond, rng))

	p := NewPace(time.Hour, 2*time.Hour, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, errors.Is(p.Wait(ctx), context.Canceled))
}

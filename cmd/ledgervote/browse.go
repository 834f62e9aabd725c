package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/logging"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/service"
	"github.com/lvdashuaibi/ledgervote/internal/view"
)

var browseCmd = &cobra.Command{
	Use:   "browse <candidate|voter|vote>",
	Short: "交互式浏览列表",
	Long: `交互式浏览列表。命令：
  :current   切换到当前状态
  :history   切换到历史记录
  /关键字    搜索，单独输入 / 清空
  :refresh   重新拉取
  :quit      退出`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		election, err := newElection()
		if err != nil {
			return err
		}
		s := newSession(kind, election, dateFormat(cfg), logger)
		return runBrowse(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), s)
	},
}

// session 单个列表的浏览状态
type session interface {
	load(ctx context.Context)
	setMode(mode model.Mode)
	setQuery(query string)
	render(w io.Writer) error
}

type listSession[T any] struct {
	kind     model.Kind
	election *service.ElectionService
	state    *view.ListState[T]
	snapshot func(mode model.Mode, query string) service.ListView[T]
	table    func([]T, bignum.DateFormat) table
	format   bignum.DateFormat
	logger   *zap.SugaredLogger
	errs     map[model.Mode]error
}

func newSession(kind model.Kind, election *service.ElectionService, f bignum.DateFormat, logger *zap.SugaredLogger) session {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("module", "browse", "kind", kind)
	switch kind {
	case model.KindVoter:
		return &listSession[model.Voter]{
			kind: kind, election: election, format: f, logger: logger,
			state:    view.NewListState(view.VoterSpec),
			snapshot: election.Voters,
			table:    voterTable,
		}
	case model.KindVote:
		return &listSession[model.VoteTally]{
			kind: kind, election: election, format: f, logger: logger,
			state:    view.NewListState(view.TallySpec),
			snapshot: election.Tallies,
			table:    tallyTable,
		}
	}
	return &listSession[model.Candidate]{
		kind: model.KindCandidate, election: election, format: f, logger: logger,
		state:    view.NewListState(view.CandidateSpec),
		snapshot: election.Candidates,
		table:    candidateTable,
	}
}

// load 绕过快照缓存重新拉取，当前状态和历史分别记录错误
func (s *listSession[T]) load(ctx context.Context) {
	if err := s.election.ForceRefresh(ctx, s.kind); err != nil {
		s.logger.Debugw("刷新失败", "err", err)
	}
	cur := s.snapshot(model.ModeCurrent, "")
	hist := s.snapshot(model.ModeHistory, "")
	s.state.SetCurrent(cur.Rows)
	s.state.SetHistory(hist.Rows)
	s.errs = map[model.Mode]error{
		model.ModeCurrent: cur.Err,
		model.ModeHistory: hist.Err,
	}
}

func (s *listSession[T]) setMode(mode model.Mode) { s.state.SetMode(mode) }
func (s *listSession[T]) setQuery(query string)   { s.state.SetQuery(query) }

func (s *listSession[T]) render(w io.Writer) error {
	mode := s.state.Mode()
	fmt.Fprintf(w, "[%s/%s]", s.kind, mode)
	if q := s.state.Query(); q != "" {
		fmt.Fprintf(w, " 搜索: %q", q)
	}
	fmt.Fprintln(w)

	if err := s.errs[mode]; err != nil {
		fmt.Fprintf(w, "加载失败: %v\n", err)
		return nil
	}
	rows := s.state.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(w, "(无数据)")
		return nil
	}
	if err := s.table(rows, s.format).write(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "共 %d 条\n", len(rows))
	return nil
}

func runBrowse(ctx context.Context, in io.Reader, out io.Writer, s session) error {
	s.load(ctx)
	if err := s.render(out); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
		case line == ":quit" || line == ":q":
			return nil
		case line == ":current":
			s.setMode(model.ModeCurrent)
		case line == ":history":
			s.setMode(model.ModeHistory)
		case line == ":refresh":
			s.load(ctx)
		case strings.HasPrefix(line, "/"):
			s.setQuery(strings.TrimSpace(strings.TrimPrefix(line, "/")))
		default:
			fmt.Fprintf(out, "未知命令: %s\n", line)
			continue
		}

		if err := s.render(out); err != nil {
			return err
		}
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
	"github.com/lvdashuaibi/ledgervote/internal/service"
	"github.com/lvdashuaibi/ledgervote/internal/view"
)

var (
	listView  string
	listQuery string
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:   "list <candidate|voter|vote>",
	Short: "拉取一次并打印列表",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		mode, err := model.ParseMode(listView)
		if err != nil {
			return err
		}

		election, err := newElection()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.API.Timeout)
		defer cancel()
		// 某个列表失败不影响另一个，错误随结果一起打印
		_ = election.Refresh(ctx, kind)

		return printList(cmd.OutOrStdout(), election, kind, mode, listQuery, dateFormat(cfg), listJSON)
	},
}

func init() {
	listCmd.Flags().StringVar(&listView, "view", "current", "current 或 history")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "搜索关键字")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "以JSON输出")
}

func printList(w io.Writer, election *service.ElectionService, kind model.Kind, mode model.Mode, query string, f bignum.DateFormat, asJSON bool) error {
	var (
		t    table
		rows interface{}
		err  error
	)
	switch kind {
	case model.KindCandidate:
		v := election.Candidates(mode, query)
		t, rows, err = candidateTable(v.Rows, f), view.CandidateRows(v.Rows, f), v.Err
	case model.KindVoter:
		v := election.Voters(mode, query)
		t, rows, err = voterTable(v.Rows, f), view.VoterRows(v.Rows, f), v.Err
	case model.KindVote:
		v := election.Tallies(mode, query)
		t, rows, err = tallyTable(v.Rows, f), view.TallyRows(v.Rows, f), v.Err
	}

	if asJSON {
		resp := map[string]interface{}{"view": mode, "query": query, "rows": rows}
		if err != nil {
			resp["error"] = err.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if err != nil {
		fmt.Fprintf(w, "加载失败: %v\n", err)
		return nil
	}
	if len(t.rows) == 0 {
		fmt.Fprintln(w, "(无数据)")
		return nil
	}
	return t.write(w)
}

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "打印各候选人得票占比",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		election, err := newElection()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.API.Timeout)
		defer cancel()
		_ = election.Refresh(ctx, model.KindCandidate)
		_ = election.Refresh(ctx, model.KindVote)

		shares, err := election.Shares()
		if err != nil {
			return fmt.Errorf("获取得票占比失败: %w", err)
		}
		if len(shares) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(无数据)")
			return nil
		}
		return shareTable(shares).write(cmd.OutOrStdout())
	},
}

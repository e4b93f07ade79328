package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dnslin/crowdfund-desktop/core/fundapi"
)

func newDonationsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donations",
		Short: "查看与发起捐款",
	}

	cmd.AddCommand(newDonationsListCommand(opts))
	cmd.AddCommand(newDonationsMakeCommand(opts))
	return cmd
}

func newDonationsListCommand(opts *rootOptions) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出我的捐款记录",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.requireAuthenticated(cmd.Context(), "donations list"); err != nil {
				return err
			}
			result, err := a.api.ListDonations(cmd.Context(), project)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.JSON, result, func(w io.Writer) {
				fmt.Fprintf(w, "共 %d 笔捐款\n", result.Count)
				for _, d := range result.Results {
					title := d.ProjectTitle
					if title == "" {
						title = d.ProjectSlug
					}
					fmt.Fprintf(w, "%-24s %10.2f  %s\n", title, d.Amount, d.CreatedAt)
				}
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "按项目 slug 过滤")
	return cmd
}

func newDonationsMakeCommand(opts *rootOptions) *cobra.Command {
	var (
		message   string
		anonymous bool
	)

	cmd := &cobra.Command{
		Use:   "make <项目slug> <金额>",
		Short: "向项目捐款",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("金额格式非法：%q", args[1])
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.requireAuthenticated(cmd.Context(), "donations make"); err != nil {
				return err
			}
			donation, err := a.api.CreateDonation(cmd.Context(), fundapi.DonationRequest{
				ProjectSlug: args[0],
				Amount:      amount,
				Message:     message,
				Anonymous:   anonymous,
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.JSON, donation, func(w io.Writer) {
				fmt.Fprintf(w, "捐款成功：%s %.2f\n", args[0], donation.Amount)
			})
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "留言")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "匿名捐款")
	return cmd
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dnslin/crowdfund-desktop/core/fundapi"
	"github.com/dnslin/crowdfund-desktop/core/model"
)

func newProjectsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "浏览与管理众筹项目",
	}

	cmd.AddCommand(newProjectsListCommand(opts))
	cmd.AddCommand(newProjectsShowCommand(opts))
	cmd.AddCommand(newProjectsMineCommand(opts))
	cmd.AddCommand(newProjectsCreateCommand(opts))
	cmd.AddCommand(newCategoriesCommand(opts))
	return cmd
}

func newProjectsListCommand(opts *rootOptions) *cobra.Command {
	var (
		page, limit int
		category    string
		featured    bool
		search      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出项目",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			listOpts := []fundapi.ListOption{
				fundapi.WithListPagination(page, limit),
				fundapi.WithListCategory(category),
				fundapi.WithListSearch(search),
			}
			if featured {
				listOpts = append(listOpts, fundapi.WithListFeatured())
			}
			result, err := a.api.ListProjects(cmd.Context(), listOpts...)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.JSON, result, func(w io.Writer) {
				fmt.Fprintf(w, "共 %d 个项目\n", result.Count)
				for i := range result.Results {
					printProjectLine(w, &result.Results[i])
				}
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "页码")
	cmd.Flags().IntVar(&limit, "limit", 0, "每页数量")
	cmd.Flags().StringVar(&category, "category", "", "按分类过滤")
	cmd.Flags().BoolVar(&featured, "featured", false, "仅精选项目")
	cmd.Flags().StringVar(&search, "search", "", "按关键字搜索")
	return cmd
}

func newProjectsShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "查看项目详情",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			project, err := a.api.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.JSON, project, func(w io.Writer) {
				fmt.Fprintf(w, "%s（%s）\n", project.Title, project.Slug)
				fmt.Fprintf(w, "%s\n", project.Description)
				fmt.Fprintf(w, "发起人：%s  分类：%s\n", project.Owner, project.Category.Name)
				fmt.Fprintf(w, "进度：%.2f / %.2f（%.0f%%）\n",
					project.CurrentAmount, project.GoalAmount, project.Progress()*100)
				if project.EndDate != "" {
					fmt.Fprintf(w, "截止：%s\n", project.EndDate)
				}
			})
		},
	}
}

func newProjectsMineCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "列出我创建的项目",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.requireAuthenticated(cmd.Context(), "projects mine"); err != nil {
				return err
			}
			result, err := a.api.MyProjects(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.JSON, result, func(w io.Writer) {
				fmt.Fprintf(w, "共 %d 个项目\n", result.Count)
				for i := range result.Results {
					printProjectLine(w, &result.Results[i])
				}
			})
		},
	}
}

func newProjectsCreateCommand(opts *rootOptions) *cobra.Command {
	var draft fundapi.ProjectDraft

	cmd := &cobra.Command{
		Use:   "create",
		Short: "创建新项目",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.requireAuthenticated(cmd.Context(), "projects create"); err != nil {
				return err
			}
			project, err := a.api.CreateProject(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.JSON, project, func(w io.Writer) {
				fmt.Fprintf(w, "已创建：%s（%s）\n", project.Title, project.Slug)
			})
		},
	}

	cmd.Flags().StringVar(&draft.Title, "title", "", "标题")
	cmd.Flags().StringVar(&draft.Description, "description", "", "描述")
	cmd.Flags().StringVar(&draft.ImageURL, "image-url", "", "封面图地址")
	cmd.Flags().Float64Var(&draft.GoalAmount, "goal", 0, "目标金额")
	cmd.Flags().Int64Var(&draft.CategoryID, "category-id", 0, "分类 ID")
	cmd.Flags().StringVar(&draft.EndDate, "end-date", "", "截止日期（YYYY-MM-DD）")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("goal")
	_ = cmd.MarkFlagRequired("category-id")
	return cmd
}

func newCategoriesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "列出全部项目分类",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			categories, err := a.api.Categories(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.JSON, categories, func(w io.Writer) {
				for _, c := range categories {
					fmt.Fprintf(w, "%s（%s）\n", c.Name, c.Slug)
				}
			})
		},
	}
}

func printProjectLine(w io.Writer, p *model.Project) {
	marker := " "
	if p.Featured {
		marker = "*"
	}
	fmt.Fprintf(w, "%s %-24s %6.0f%%  %s\n", marker, p.Slug, p.Progress()*100, p.Title)
}

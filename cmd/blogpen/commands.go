package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rgonek/blogpen/command"
	"github.com/rgonek/blogpen/editor"
	"github.com/rgonek/blogpen/markup"
	"github.com/rgonek/blogpen/media"
	"github.com/rgonek/blogpen/post"
	"github.com/rgonek/blogpen/storage"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render <markup-file>",
		Short: "Parse markup and print it in normalized form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			codec, err := a.codec()
			if err != nil {
				return err
			}
			res, err := codec.Deserialize(string(data))
			if err != nil {
				return fmt.Errorf("parsing markup: %w", err)
			}
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			fmt.Fprintln(cmd.OutOrStdout(), codec.Serialize(res.Document))
			return nil
		},
	}
}

func newApplyCmd(a *app) *cobra.Command {
	var (
		name     string
		params   map[string]string
		from, to string
	)
	cmd := &cobra.Command{
		Use:   "apply <markup-file>",
		Short: "Run an editing command on a document",
		Long:  "Run an editing command on a document.\n\nCommands: " + strings.Join(command.Names(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			mcfg, err := a.markupConfig()
			if err != nil {
				return err
			}
			s, err := editor.New(editor.Config{Markup: mcfg, ReadOnly: a.cfg.ReadOnly}, nil, editor.WithLogger(a.log))
			if err != nil {
				return err
			}
			if _, err := s.Open(string(data)); err != nil {
				return fmt.Errorf("parsing markup: %w", err)
			}

			anchor, err := parsePosition(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			head := anchor
			if to != "" {
				if head, err = parsePosition(to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}
			s.Select(command.Range(anchor, head))

			if _, err := s.Exec(name, params); err != nil {
				return err
			}
			for _, notice := range s.Notices() {
				fmt.Fprintln(cmd.ErrOrStderr(), "notice:", notice)
			}

			caps := make([]string, 0)
			for c := range s.Capabilities().Iter() {
				caps = append(caps, string(c))
			}
			sort.Strings(caps)
			fmt.Fprintln(cmd.ErrOrStderr(), "active:", strings.Join(caps, " "))
			fmt.Fprintln(cmd.OutOrStdout(), s.Markup())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "cmd", "", "Command name")
	cmd.Flags().StringToStringVar(&params, "param", nil, "Command parameter as key=value")
	cmd.Flags().StringVar(&from, "from", "0:0", "Selection anchor as block:offset")
	cmd.Flags().StringVar(&to, "to", "", "Selection head as block:offset (default: anchor)")
	_ = cmd.MarkFlagRequired("cmd")
	return cmd
}

func parsePosition(s string) (command.Position, error) {
	block, offset, ok := strings.Cut(s, ":")
	if !ok {
		return command.Position{}, fmt.Errorf("invalid position %q (want block:offset)", s)
	}
	b, err := strconv.Atoi(block)
	if err != nil || b < 0 {
		return command.Position{}, fmt.Errorf("invalid block in %q", s)
	}
	o, err := strconv.Atoi(offset)
	if err != nil || o < 0 {
		return command.Position{}, fmt.Errorf("invalid offset in %q", s)
	}
	return command.Position{Block: b, Offset: o}, nil
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <markdown-file>",
		Short: "Convert Markdown to markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			codec, err := a.codec()
			if err != nil {
				return err
			}
			res, err := codec.FromMarkdown(string(data))
			if err != nil {
				return fmt.Errorf("converting markdown: %w", err)
			}
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			fmt.Fprintln(cmd.OutOrStdout(), codec.Serialize(res.Document))
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <markup-file>",
		Short: "Convert markup to Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			md, err := markup.ToMarkdown(string(data))
			if err != nil {
				return fmt.Errorf("converting markup: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), md)
			return nil
		},
	}
}

func newUploadCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image or video and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readMedia(args[0])
			if err != nil {
				return err
			}
			k := media.Kind(kind)
			if k == "" {
				var ok bool
				if k, ok = media.KindOf(f.MimeType); !ok {
					return fmt.Errorf("%s: %w: %s", f.Name, media.ErrInvalidMediaType, f.MimeType)
				}
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			u, err := a.uploader(client)
			if err != nil {
				return err
			}
			uploads, err := a.coordinator(u, media.OnUpdate(func(t media.Task) {
				a.log.WithField("progress", t.Progress).Debug("upload progress")
			}))
			if err != nil {
				return err
			}

			if _, err := uploads.Start(withContext(cmd.Context()), f, k); err != nil {
				return err
			}
			uploads.Wait()

			t := uploads.Last()
			if t.Asset == nil {
				return t.Err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Asset.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Media kind: image|video (default: from the file type)")
	return cmd
}

type saveOutput struct {
	ID             string `json:"id"`
	Slug           string `json:"slug"`
	Status         string `json:"status"`
	FeaturedImage  string `json:"featured_image,omitempty"`
	ImagesReplaced int    `json:"images_replaced"`
	ImagesFailed   int    `json:"images_failed"`
}

func newSaveCmd(a *app) *cobra.Command {
	var (
		id, title, status, video     string
		metaTitle, metaDesc, feature string
	)
	cmd := &cobra.Command{
		Use:   "save <markup-file>",
		Short: "Upload embedded images and store a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			svc, err := a.postService(client)
			if err != nil {
				return err
			}
			ctx := withContext(cmd.Context())

			var draft post.Draft
			if id != "" {
				if draft, err = svc.Load(ctx, id); err != nil {
					return err
				}
			}
			draft.Content = string(data)
			flags := cmd.Flags()
			set := func(name string, dst *string, v string) {
				if flags.Changed(name) {
					*dst = v
				}
			}
			set("title", &draft.Title, title)
			set("status", &draft.Status, status)
			set("video-url", &draft.VideoURL, video)
			set("meta-title", &draft.MetaTitle, metaTitle)
			set("meta-description", &draft.MetaDescription, metaDesc)
			if feature != "" {
				f, err := readMedia(feature)
				if err != nil {
					return err
				}
				draft.FeaturedImage = &f
			}

			saved, err := svc.Save(ctx, draft)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(saveOutput{
				ID:             saved.Content.ID,
				Slug:           saved.Content.Slug,
				Status:         saved.Content.Status,
				FeaturedImage:  saved.Content.FeaturedImage,
				ImagesReplaced: saved.Images.Replaced,
				ImagesFailed:   saved.Images.Failed,
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&id, "id", "", "Update the post with this id instead of creating one")
	flags.StringVar(&title, "title", "", "Post title")
	flags.StringVar(&status, "status", "", "Status: draft|published|archived")
	flags.StringVar(&video, "video-url", "", "Video URL")
	flags.StringVar(&metaTitle, "meta-title", "", "Meta title (default: the title)")
	flags.StringVar(&metaDesc, "meta-description", "", "Meta description (default: an excerpt)")
	flags.StringVar(&feature, "featured-image", "", "Path of a new featured image")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var (
		bySlug  bool
		asJSON  bool
		asMDown bool
	)
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print the markup of a stored post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			ctx := withContext(cmd.Context())

			var c storage.Content
			if bySlug {
				c, err = client.GetContentBySlug(ctx, args[0])
			} else {
				c, err = client.GetContentByID(ctx, args[0])
			}
			if err != nil {
				return err
			}

			switch {
			case asJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			case asMDown:
				md, err := markup.ToMarkdown(c.Content)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), md)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), c.Content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&bySlug, "slug", false, "Treat the argument as a slug")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the whole record as JSON")
	cmd.Flags().BoolVar(&asMDown, "markdown", false, "Print the content as Markdown")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var params storage.ListParams
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			page, err := client.ListContent(withContext(cmd.Context()), params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range page.Items {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", c.ID, c.Status, c.Slug, c.Title)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d posts\n", len(page.Items), page.Total)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&params.Page, "page", 0, "Page number")
	flags.IntVar(&params.Limit, "limit", 0, "Posts per page")
	flags.StringVar(&params.Status, "status", "", "Filter by status")
	flags.StringVar(&params.Search, "search", "", "Search query")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			return client.DeleteContent(withContext(cmd.Context()), args[0])
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the blog API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			if err := client.Health(withContext(cmd.Context())); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/folio"
)

// project command
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create a project owned by the acting user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "CreateProject")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Service().CreateProject(cmd.Context(), actor(cmd), projectDraft(cmd, args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s\n", p.ID)
		return nil
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update PROJECT_ID TITLE",
	Short: "Replace a project's editable fields",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "UpdateProject")
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.Dispatch(cmd.Context(), actor(cmd), folio.UpdateProjectAction{
			ProjectID: args[0],
			Draft:     projectDraft(cmd, args[1]),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Updated project %s\n", args[0])
		return nil
	},
}

func projectDraft(cmd *cobra.Command, title string) folio.ProjectDraft {
	description, _ := cmd.Flags().GetString("description")
	category, _ := cmd.Flags().GetString("category")
	published, _ := cmd.Flags().GetBool("published")
	keywords, _ := cmd.Flags().GetStringSlice("keyword")
	return folio.ProjectDraft{
		Title:       title,
		Description: description,
		Published:   published,
		Category:    category,
		Keywords:    keywords,
	}
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "ListProjects")
		if err != nil {
			return err
		}
		defer a.Close()

		projects, err := a.Service().ListProjects(cmd.Context(), folio.ProjectFilter{
			Query:         query,
			PublishedOnly: !all,
			Limit:         limit,
		})
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}
		for _, p := range projects {
			state := "draft"
			if p.Published {
				state = "published"
			}
			fmt.Printf("%s  %-9s  %5d  %s\n", p.ID, state, p.Score, p.Title)
		}
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show PROJECT_ID",
	Short: "Show a project with its images, artifacts and collaborators",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "GetProject")
		if err != nil {
			return err
		}
		defer a.Close()

		access, err := a.Service().CanView(cmd.Context(), actor(cmd), args[0])
		if err != nil {
			return err
		}
		if !access.Granted() {
			return fmt.Errorf("project %s is not published and %q is not a collaborator", args[0], actor(cmd).UserID)
		}
		p, err := a.Service().GetProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s\n", p.ID, p.Title)
		fmt.Printf("Published: %t  Category: %s  Score: %d\n", p.Published, p.Category, p.Score)
		if p.Description != "" {
			fmt.Printf("\n%s\n", p.Description)
		}
		if len(p.Keywords) > 0 {
			fmt.Printf("Keywords: %s\n", strings.Join(p.Keywords, ", "))
		}

		fmt.Println("\nImages:")
		for _, img := range p.Images {
			fmt.Printf("  %3d  %s  %s\n", img.Order, img.ID, img.FileName)
		}
		fmt.Println("Artifacts:")
		for _, art := range p.Artifacts {
			target := art.Link
			if art.IsFile() {
				target = "file ." + art.Extension
				if art.Encrypted {
					target += " (encrypted)"
				}
			}
			fmt.Printf("  %s  %s  %s\n", art.ID, art.Name, target)
		}
		fmt.Println("Collaborators:")
		for _, c := range p.Collaborators {
			hidden := ""
			if !c.Visible {
				hidden = "  [hidden]"
			}
			fmt.Printf("  %s%s\n", c.UserID, hidden)
		}
		for _, aw := range p.Awards {
			fmt.Printf("Award: %s\n", aw.Name)
		}
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID",
	Short: "Delete a project with all its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "DeleteProject")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Dispatch(cmd.Context(), actor(cmd), folio.DeleteProjectAction{ProjectID: args[0]}); err != nil {
			return err
		}
		fmt.Printf("Deleted project %s\n", args[0])
		return nil
	},
}

// image command
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Manage a project's image gallery",
}

var imageAddCmd = &cobra.Command{
	Use:   "add PROJECT_ID FILE...",
	Short: "Append images to the gallery",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "AddImage")
		if err != nil {
			return err
		}
		defer a.Close()

		for _, path := range args[1:] {
			img, err := a.AddImageFile(cmd.Context(), actor(cmd), args[0], path)
			if err != nil {
				return fmt.Errorf("adding %s: %w", path, err)
			}
			fmt.Printf("%3d  %s  %s\n", img.Order, img.ID, img.FileName)
		}
		return nil
	},
}

var imageMoveCmd = &cobra.Command{
	Use:   "move PROJECT_ID IMAGE_ID FROM TO",
	Short: "Move an image from one gallery position to another",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("FROM must be a position: %w", err)
		}
		to, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("TO must be a position: %w", err)
		}

		a, err := newApp(cmd.Context(), "MoveImage")
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.Dispatch(cmd.Context(), actor(cmd), folio.MoveImageAction{
			ProjectID: args[0],
			ImageID:   args[1],
			OldIndex:  from,
			NewIndex:  to,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Moved %s from %d to %d\n", args[1], from, to)
		return nil
	},
}

var imageDeleteCmd = &cobra.Command{
	Use:   "delete IMAGE_ID",
	Short: "Remove an image from its gallery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "DeleteImage")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Dispatch(cmd.Context(), actor(cmd), folio.DeleteImageAction{ImageID: args[0]}); err != nil {
			return err
		}
		fmt.Printf("Deleted image %s\n", args[0])
		return nil
	},
}

// artifact command
var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Manage project artifacts",
}

var artifactAddCmd = &cobra.Command{
	Use:   "add PROJECT_ID [FILE]",
	Short: "Attach a file, or a link with --link",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		published, _ := cmd.Flags().GetBool("published")
		link, _ := cmd.Flags().GetString("link")
		if (link == "") == (len(args) == 1) {
			return fmt.Errorf("give either a FILE or --link, not both")
		}

		a, err := newApp(cmd.Context(), "AddArtifact")
		if err != nil {
			return err
		}
		defer a.Close()

		var art *folio.Artifact
		if link != "" {
			var res folio.Result
			res, err = a.Dispatch(cmd.Context(), actor(cmd), folio.AddArtifactAction{
				ProjectID: args[0],
				Draft:     folio.ArtifactDraft{Name: name, Description: description, Published: published, Link: link},
			})
			art = res.Artifact
		} else {
			art, err = a.AddArtifactFile(cmd.Context(), actor(cmd), args[0], name, description, args[1], published)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Added artifact %s (%s)\n", art.ID, art.Name)
		return nil
	},
}

var artifactGetCmd = &cobra.Command{
	Use:   "get ARTIFACT_ID",
	Short: "Write a file artifact's content to stdout or --output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(cmd.Context(), "ArtifactContent")
		if err != nil {
			return err
		}
		defer a.Close()

		w := os.Stdout
		if output != "" {
			f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		return a.WriteArtifactContent(cmd.Context(), args[0], w, func() (string, error) {
			return readPassphrase("Passphrase: ")
		})
	},
}

var artifactDeleteCmd = &cobra.Command{
	Use:   "delete ARTIFACT_ID",
	Short: "Remove an artifact and its stored content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "DeleteArtifact")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Dispatch(cmd.Context(), actor(cmd), folio.DeleteArtifactAction{ArtifactID: args[0]}); err != nil {
			return err
		}
		fmt.Printf("Deleted artifact %s\n", args[0])
		return nil
	},
}

// invite command
var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Manage collaboration invitations",
}

var inviteSendCmd = &cobra.Command{
	Use:   "send PROJECT_ID EMAIL",
	Short: "Email an invitation to collaborate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Invite")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Dispatch(cmd.Context(), actor(cmd), folio.InviteAction{ProjectID: args[0], Email: args[1]})
		if err != nil {
			return err
		}
		fmt.Printf("Invitation %s sent to %s\n", res.Invitation.ID, res.Invitation.Email)
		return nil
	},
}

var inviteListCmd = &cobra.Command{
	Use:   "list [PROJECT_ID]",
	Short: "List pending invitations for a project, or for --email",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		if (email == "") == (len(args) == 0) {
			return fmt.Errorf("give either a PROJECT_ID or --email")
		}

		a, err := newApp(cmd.Context(), "ListInvitations")
		if err != nil {
			return err
		}
		defer a.Close()

		var invitations []*folio.Invitation
		if email != "" {
			invitations, err = a.Service().ListInvitationsForEmail(cmd.Context(), email)
		} else {
			invitations, err = a.Service().ListInvitations(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		if len(invitations) == 0 {
			fmt.Println("No pending invitations.")
			return nil
		}
		for _, inv := range invitations {
			fmt.Printf("%s  %s  %s  %s\n", inv.ID, inv.ProjectID, inv.Email, inv.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var inviteAcceptCmd = &cobra.Command{
	Use:   "accept PROJECT_ID INVITATION_ID",
	Short: "Accept an invitation as the acting user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "AcceptInvitation")
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.Dispatch(cmd.Context(), actor(cmd), folio.AcceptInvitationAction{ProjectID: args[0], InvitationID: args[1]})
		if err != nil {
			return err
		}
		fmt.Printf("%s now collaborates on %s\n", actor(cmd).UserID, args[0])
		return nil
	},
}

var inviteDeclineCmd = &cobra.Command{
	Use:   "decline PROJECT_ID INVITATION_ID",
	Short: "Decline an invitation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "DeclineInvitation")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Dispatch(cmd.Context(), actor(cmd), folio.DeclineInvitationAction{ProjectID: args[0], InvitationID: args[1]}); err != nil {
			return err
		}
		fmt.Printf("Declined invitation %s\n", args[1])
		return nil
	},
}

// collab command
var collabCmd = &cobra.Command{
	Use:   "collab",
	Short: "Manage project collaborators",
}

var collabListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List a project's collaborators",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ListCollaborators")
		if err != nil {
			return err
		}
		defer a.Close()

		links, err := a.Service().ListCollaborators(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, l := range links {
			fmt.Printf("%s  visible=%t\n", l.UserID, l.Visible)
		}
		return nil
	},
}

var collabCheckCmd = &cobra.Command{
	Use:   "check PROJECT_ID USER_ID",
	Short: "Report whether a user collaborates on a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		visible, _ := cmd.Flags().GetBool("visible")

		a, err := newApp(cmd.Context(), "IsCollaborator")
		if err != nil {
			return err
		}
		defer a.Close()

		access, err := a.Service().IsCollaborator(cmd.Context(), args[0], args[1], visible)
		fmt.Println(access)
		return err
	},
}

var collabVisibilityCmd = &cobra.Command{
	Use:   "visibility PROJECT_ID USER_ID show|hide",
	Short: "Show or hide a collaborator on the public project page",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var visible bool
		switch args[2] {
		case "show":
			visible = true
		case "hide":
		default:
			return fmt.Errorf("visibility must be show or hide, got %q", args[2])
		}

		a, err := newApp(cmd.Context(), "SetCollaboratorVisibility")
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.Dispatch(cmd.Context(), actor(cmd), folio.SetVisibilityAction{ProjectID: args[0], UserID: args[1], Visible: visible})
		return err
	},
}

var collabRemoveCmd = &cobra.Command{
	Use:   "remove PROJECT_ID USER_ID",
	Short: "Unlink a collaborator from a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "RemoveCollaborator")
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.Dispatch(cmd.Context(), actor(cmd), folio.RemoveCollaboratorAction{ProjectID: args[0], UserID: args[1]})
		return err
	},
}

// award command
var awardCmd = &cobra.Command{
	Use:   "award",
	Short: "Manage awards",
}

var awardCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Define an award",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		image, _ := cmd.Flags().GetString("image")
		badge, _ := cmd.Flags().GetString("badge")

		a, err := newApp(cmd.Context(), "CreateAward")
		if err != nil {
			return err
		}
		defer a.Close()

		aw, err := a.Service().CreateAward(cmd.Context(), folio.Award{
			Name:        args[0],
			Description: description,
			ImageName:   image,
			BadgeName:   badge,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created award %s\n", aw.ID)
		return nil
	},
}

var awardGrantCmd = &cobra.Command{
	Use:   "grant PROJECT_ID AWARD_ID",
	Short: "Grant an award to a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "GrantAward")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Service().GrantAward(cmd.Context(), args[0], args[1])
	},
}

func init() {
	for _, c := range []*cobra.Command{projectCreateCmd, projectUpdateCmd} {
		c.Flags().StringP("description", "d", "", "Project description")
		c.Flags().StringP("category", "c", "", "Project category")
		c.Flags().Bool("published", false, "Publish the project")
		c.Flags().StringSliceP("keyword", "k", nil, "Keyword (repeatable)")
	}
	projectListCmd.Flags().StringP("query", "q", "", "Substring to match in title or description")
	projectListCmd.Flags().Bool("all", false, "Include unpublished projects")
	projectListCmd.Flags().IntP("limit", "n", 50, "Maximum number of projects to show")
	projectCmd.AddCommand(projectCreateCmd, projectUpdateCmd, projectListCmd, projectShowCmd, projectDeleteCmd)

	imageCmd.AddCommand(imageAddCmd, imageMoveCmd, imageDeleteCmd)

	artifactAddCmd.Flags().String("name", "", "Artifact name (default: file name)")
	artifactAddCmd.Flags().StringP("description", "d", "", "Artifact description")
	artifactAddCmd.Flags().Bool("published", false, "Show the artifact publicly")
	artifactAddCmd.Flags().String("link", "", "External URL instead of a file")
	artifactGetCmd.Flags().StringP("output", "o", "", "Write to this new file instead of stdout")
	artifactCmd.AddCommand(artifactAddCmd, artifactGetCmd, artifactDeleteCmd)

	inviteListCmd.Flags().String("email", "", "List invitations addressed to this email")
	inviteCmd.AddCommand(inviteSendCmd, inviteListCmd, inviteAcceptCmd, inviteDeclineCmd)

	collabCheckCmd.Flags().Bool("visible", false, "Require the collaborator to be publicly visible")
	collabCmd.AddCommand(collabListCmd, collabCheckCmd, collabVisibilityCmd, collabRemoveCmd)

	awardCreateCmd.Flags().StringP("description", "d", "", "Award description")
	awardCreateCmd.Flags().String("image", "", "Image file name")
	awardCreateCmd.Flags().String("badge", "", "Badge file name")
	awardCmd.AddCommand(awardCreateCmd, awardGrantCmd)
	rootCmd.AddCommand(awardCmd)
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/totegamma/tentd/internal/domain"
	"github.com/totegamma/tentd/internal/infra/database"
	"github.com/totegamma/tentd/internal/infra/repository"
	"github.com/totegamma/tentd/internal/usecase"
)

func entityUsecase() (*usecase.EntityUsecase, string, error) {
	conf, logger, db, err := bootstrap()
	if err != nil {
		return nil, "", err
	}

	profiles := repository.NewProfileRepository(db, profileCache(conf))
	uc := usecase.NewEntityUsecase(repository.NewEntityRepository(db), profiles, logger)
	return uc, conf.NodeInfo.BaseURL, nil
}

func newUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-user <name>",
		Short: "create a local entity with its core profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, baseURL, err := entityUsecase()
			if err != nil {
				return err
			}
			if baseURL == "" {
				return errors.New("nodeInfo.baseURL must be configured to create entities")
			}

			entity, err := uc.Create(cmd.Context(), args[0], baseURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", entity.Name, entity.IdentityURL)
			return nil
		},
	}
}

func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <name>",
		Short: "delete a local entity and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, _, err := entityUsecase()
			if err != nil {
				return err
			}
			if err := uc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "drop every table owned by tentd",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := database.DropAll(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dropped all tables")
			return nil
		},
	}
}

func setProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-profile <name> <schema> <content-json>",
		Short: "create or replace one profile block of a local entity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := parseProfileContent(args[2])
			if err != nil {
				return err
			}

			uc, _, err := entityUsecase()
			if err != nil {
				return err
			}
			entity, err := uc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			err = uc.SaveProfile(cmd.Context(), entity, domain.Profile{Schema: args[1], Content: content})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s for %s\n", args[1], entity.Name)
			return nil
		},
	}
}

// parseProfileContent accepts a JSON object.
func parseProfileContent(raw string) (map[string]any, error) {
	var content map[string]any
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, errors.Wrap(err, "profile content must be a json object")
	}
	if content == nil {
		return nil, errors.New("profile content must be a json object")
	}
	return content, nil
}

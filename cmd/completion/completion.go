/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package completion

import (
	"errors"

	"github.com/spf13/cobra"
)

const (
	completionExample = `
Save shell completion to a file
# go-m72 completion bash > $HOME/.go-m72_completions

Apply completions to the current bash instance
# source <(go-m72 completion bash)

Load zsh completions
# go-m72 completion zsh > "${fpath[1]}/_go-m72"
`
)

// NewCommand creates a cobra command object for generating completion scripts
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "completion bash|zsh",
		Short:     "Generate completion script for bash or zsh",
		Example:   completionExample,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"bash", "zsh"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := "bash"
			if len(args) > 0 {
				shell = args[0]
			}
			switch shell {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			}
			return errors.New("Wrong shell. Must be one of bash/zsh")
		},
	}
	return cmd
}

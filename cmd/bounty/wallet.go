package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/bounty/client/core/output"
	"github.com/weisyn/bounty/client/core/wallet"
)

var (
	walletLabel      string
	walletMnemonic   bool
	walletWords      int
	walletPassphrase string
	walletPath       string
)

// walletCmd 钱包相关命令
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "钱包管理",
	Long:  "创建、导入和查看本地 keystore 中的账户",
}

// walletNewCmd 创建新账户
var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "创建新账户",
	Long: `创建新的账户并加密保存到 keystore。

示例：
  bounty wallet new                       # 随机私钥
  bounty wallet new --mnemonic            # 12词助记词
  bounty wallet new --mnemonic --words 24 # 24词助记词`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := openKeystore()
		if err != nil {
			return err
		}

		var (
			signer   *wallet.KeySigner
			mnemonic string
		)
		if walletMnemonic {
			var strength wallet.MnemonicStrength
			switch walletWords {
			case 12:
				strength = wallet.Mnemonic12Words
			case 24:
				strength = wallet.Mnemonic24Words
			default:
				return fmt.Errorf("无效的助记词数量: %d，支持 12, 24", walletWords)
			}
			if mnemonic, err = wallet.GenerateMnemonic(strength); err != nil {
				return fmt.Errorf("生成助记词失败: %w", err)
			}
			if signer, err = wallet.DeriveKey(mnemonic, walletPassphrase, walletPath); err != nil {
				return fmt.Errorf("从助记词派生密钥失败: %w", err)
			}
		} else if signer, err = wallet.GenerateKeySigner(); err != nil {
			return fmt.Errorf("生成私钥失败: %w", err)
		}

		password, err := promptNewPassword()
		if err != nil {
			return err
		}
		account, err := ks.Store(signer, password, walletLabel)
		if err != nil {
			return fmt.Errorf("保存账户失败: %w", err)
		}

		formatter.PrintSuccess(fmt.Sprintf("账户创建成功: %s", account.Address))
		if mnemonic != "" {
			formatter.PrintWarning("请务必离线备份以下助记词，丢失将无法恢复账户:")
			pterm.DefaultBox.WithTitle("mnemonic").Println(mnemonic)
		}
		return formatter.Print(accountFields(account))
	},
}

// walletImportCmd 从助记词导入账户
var walletImportCmd = &cobra.Command{
	Use:   "import-mnemonic",
	Short: "从助记词导入账户",
	Long: `从标准输入读取 BIP39 助记词，按派生路径恢复账户。

示例：
  bounty wallet import-mnemonic
  bounty wallet import-mnemonic --path "m/44'/283'/0'/0/1"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := openKeystore()
		if err != nil {
			return err
		}

		fmt.Fprint(os.Stderr, "输入助记词: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return fmt.Errorf("读取助记词失败: %w", err)
		}
		if !wallet.ValidateMnemonic(line) {
			return wallet.ErrInvalidMnemonic
		}
		signer, err := wallet.DeriveKey(line, walletPassphrase, walletPath)
		if err != nil {
			return fmt.Errorf("从助记词派生密钥失败: %w", err)
		}

		password, err := promptNewPassword()
		if err != nil {
			return err
		}
		account, err := ks.Store(signer, password, walletLabel)
		if err != nil {
			return fmt.Errorf("保存账户失败: %w", err)
		}
		formatter.PrintSuccess(fmt.Sprintf("账户导入成功: %s", account.Address))
		return formatter.Print(accountFields(account))
	},
}

// walletAddressCmd 列出账户地址
var walletAddressCmd = &cobra.Command{
	Use:     "address",
	Aliases: []string{"list"},
	Short:   "列出 keystore 中的账户",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := openKeystore()
		if err != nil {
			return err
		}
		accounts, err := ks.List()
		if err != nil {
			return fmt.Errorf("列出账户失败: %w", err)
		}
		formatter.PrintInfo(fmt.Sprintf("Keystore: %s", ks.Dir()))
		if len(accounts) == 0 {
			formatter.PrintWarning("未找到账户，使用 'bounty wallet new' 创建新账户")
			return nil
		}

		table := &output.Table{Columns: []string{"ADDRESS", "LABEL", "CREATED"}, Data: accounts}
		for _, a := range accounts {
			table.Rows = append(table.Rows, []string{a.Address, a.Label, a.CreatedAt.Format("2006-01-02 15:04:05")})
		}
		return formatter.Print(table)
	},
}

func accountFields(account *wallet.Account) *output.Fields {
	return output.NewFields(account).
		Add("Address", account.Address).
		Add("Label", account.Label).
		Add("Created", account.CreatedAt)
}

func init() {
	for _, c := range []*cobra.Command{walletNewCmd, walletImportCmd} {
		c.Flags().StringVar(&walletLabel, "label", "", "账户标签")
		c.Flags().StringVar(&walletPassphrase, "passphrase", "", "BIP39 附加口令")
		c.Flags().StringVar(&walletPath, "path", "", "派生路径 (默认 m/44'/283'/0'/0/0)")
	}
	walletNewCmd.Flags().BoolVar(&walletMnemonic, "mnemonic", false, "生成助记词账户")
	walletNewCmd.Flags().IntVar(&walletWords, "words", 12, "助记词数量: 12|24")

	walletCmd.AddCommand(walletNewCmd, walletImportCmd, walletAddressCmd)
}
